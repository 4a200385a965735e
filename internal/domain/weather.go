package domain

import "time"

// Weather represents current conditions at a coordinate
type Weather struct {
	Condition   string     `json:"weather_condition"`
	Description string     `json:"description"`
	Temperature float64    `json:"temperature"`
	FeelsLike   float64    `json:"feels_like"`
	Humidity    int        `json:"humidity"`
	Pressure    int        `json:"pressure"`
	WindSpeed   float64    `json:"wind_speed"`
	Visibility  int        `json:"visibility"`
	Icon        string     `json:"icon,omitempty"`
	City        string     `json:"city,omitempty"`
	Location    Coordinate `json:"location"`
	Timestamp   time.Time  `json:"timestamp"`
	IsMock      bool       `json:"is_mock"`
}

// WeatherResponse wraps weather data with metadata
type WeatherResponse struct {
	Data    Weather `json:"data"`
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
}

package engine

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/morpheusmaps/backend/internal/domain"
	"github.com/morpheusmaps/backend/pkg/utils"
)

type catalogEntry struct {
	name     string
	lat, lng float64
	baseRisk float64
}

type nationalEntry struct {
	name      string
	lat, lng  float64
	risk      float64
	incidents int
}

var cityCatalog = map[string][]catalogEntry{
	"jaipur": {
		{"Jaipur - Ajmer Road (Sanganer)", 26.8543, 75.7923, 0.75},
		{"Jaipur - Delhi Highway (Shahpura)", 27.0238, 75.9573, 0.72},
		{"Tonk Road - Malviya Nagar", 26.8467, 75.8648, 0.68},
		{"Sikar Road - Vishwakarma", 26.9690, 75.7804, 0.65},
		{"Agra Road - Sodala", 26.9389, 75.8737, 0.62},
		{"JLN Marg - Civil Lines", 26.9157, 75.8061, 0.58},
		{"Amer Road - Brahampuri", 26.9855, 75.8304, 0.55},
		{"Ring Road - Jagatpura", 26.8206, 75.8745, 0.52},
		{"Kota Road - Mansarovar", 26.8388, 75.7854, 0.48},
		{"Chomu Road - Kalwar", 27.0397, 75.6849, 0.45},
	},
	"mumbai": {
		{"Western Express Highway - Andheri", 19.1136, 72.8697, 0.85},
		{"Eastern Express Highway - Vikhroli", 19.1095, 72.9240, 0.82},
		{"Mumbai-Pune Expressway - Kalyan", 19.2403, 73.1305, 0.78},
		{"Sion-Panvel Highway - Chembur", 19.0330, 72.8856, 0.75},
		{"Link Road - Malad", 19.1864, 72.8493, 0.72},
		{"SV Road - Bandra", 19.0596, 72.8295, 0.68},
		{"Ghatkopar-Mankhurd Link Road", 19.0863, 72.9081, 0.65},
		{"Worli Sea Link - Worli", 19.0176, 72.8162, 0.62},
		{"Santacruz-Chembur Link Road", 19.0728, 72.8826, 0.58},
		{"Powai-Vihar Lake Road", 19.1176, 72.9060, 0.55},
	},
	"delhi": {
		{"Ring Road - ITO", 28.6289, 77.2478, 0.88},
		{"NH8 - Dhaula Kuan", 28.5933, 77.1619, 0.85},
		{"Outer Ring Road - Narela", 28.8541, 77.1025, 0.82},
		{"GT Karnal Road - Wazirabad", 28.7041, 77.1712, 0.78},
		{"Mathura Road - Okhla", 28.5355, 77.2739, 0.75},
		{"Rohtak Road - Mundka", 28.6832, 76.9734, 0.72},
		{"Delhi-Gurgaon Road - Kapashera", 28.5245, 77.0626, 0.68},
		{"Yamuna Expressway - Greater Noida", 28.4595, 77.5026, 0.65},
		{"NH1 - Alipur", 28.8077, 77.1514, 0.62},
		{"Badarpur Border Road", 28.4958, 77.3089, 0.58},
	},
	"bangalore": {
		{"Outer Ring Road - Electronic City", 12.8456, 77.6603, 0.82},
		{"Hosur Road - Bommanahalli", 12.9152, 77.6344, 0.78},
		{"Bannerghatta Road - BTM Layout", 12.9165, 77.6101, 0.75},
		{"Mysore Road - Kengeri", 12.9081, 77.4851, 0.72},
		{"Tumkur Road - Yeshwanthpur", 13.0280, 77.5423, 0.68},
		{"Old Airport Road - HAL", 12.9698, 77.6500, 0.65},
		{"Whitefield Road - ITPL", 12.9897, 77.7295, 0.62},
		{"Kanakapura Road - Banashankari", 12.9245, 77.5551, 0.58},
		{"Bellary Road - Hebbal", 13.0358, 77.5970, 0.55},
		{"Sarjapur Road - Marathahalli", 12.9591, 77.6974, 0.52},
	},
}

var nationalHotspots = []nationalEntry{
	{"Mumbai - Pune Expressway (Khalapur)", 18.8626, 73.3234, 0.85, 24},
	{"Delhi - Gurgaon Highway (Cyber City)", 28.4945, 77.0894, 0.75, 18},
	{"Bangalore ORR - Electronic City", 12.8456, 77.6603, 0.7, 16},
	{"Chennai - ECR Highway", 12.8853, 80.2242, 0.68, 14},
	{"Hyderabad - ORR (Gachibowli)", 17.4239, 78.3776, 0.65, 12},
	{"Kolkata - EM Bypass", 22.5412, 88.4118, 0.6, 11},
	{"Pune - Mumbai Highway (Lonavala)", 18.7537, 73.4068, 0.58, 9},
	{"Jaipur - Delhi Highway (Neemrana)", 27.9814, 76.3864, 0.55, 8},
}

// KnownHotspotCity reports whether the catalog carries a table for city
func KnownHotspotCity(city string) bool {
	_, ok := cityCatalog[strings.ToLower(strings.TrimSpace(city))]
	return ok
}

// Hotspots returns the catalog entries for city adjusted to hour. An empty
// city yields the national list; an unknown one yields two synthesized
// entries jittered around Jaipur using rng.
func Hotspots(city string, hour int, rng *rand.Rand) []domain.HotspotEntry {
	mult := RouteRiskProfile.Time.Multiplier(hour)
	city = strings.TrimSpace(city)

	if city == "" {
		out := make([]domain.HotspotEntry, 0, len(nationalHotspots))
		for _, h := range nationalHotspots {
			out = append(out, domain.HotspotEntry{
				Name:          h.name,
				Coordinate:    domain.Coordinate{Lat: h.lat, Lng: h.lng},
				RiskLevel:     math.Min(MaxRiskScore, h.risk*mult),
				IncidentCount: int(math.Round(float64(h.incidents) * mult)),
			})
		}
		return out
	}

	entries, ok := cityCatalog[strings.ToLower(city)]
	if !ok {
		entries = []catalogEntry{
			jittered(fmt.Sprintf("%s - Main Highway", city), 0.7, rng),
			jittered(fmt.Sprintf("%s - Ring Road", city), 0.6, rng),
		}
	}

	out := make([]domain.HotspotEntry, 0, len(entries))
	for i, e := range entries {
		variation := math.Sin(float64(hour+i)*math.Pi/12) * 0.1
		out = append(out, domain.HotspotEntry{
			Name:          e.name,
			Coordinate:    domain.Coordinate{Lat: e.lat, Lng: e.lng},
			RiskLevel:     utils.Clamp(e.baseRisk*mult+variation, 0.1, MaxRiskScore),
			IncidentCount: int(math.Round(e.baseRisk * 20 * mult)),
		})
	}
	return out
}

func jittered(name string, baseRisk float64, rng *rand.Rand) catalogEntry {
	return catalogEntry{
		name:     name,
		lat:      domain.JaipurCenter.Lat + (rng.Float64()-0.5)*0.1,
		lng:      domain.JaipurCenter.Lng + (rng.Float64()-0.5)*0.1,
		baseRisk: baseRisk,
	}
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/pedalhaus/pedalhaus/plugin/vectorstore"
	"github.com/pedalhaus/pedalhaus/store"
)

// Domain vocabulary used for query condensation and preference capture.
var (
	bikeTypes    = []string{"mountain", "city", "road", "electric", "hybrid", "gravel", "bmx"}
	bikeFeatures = []string{"aluminum", "carbon", "steel", "hydraulic", "disc", "suspension"}
	bikeUses     = []string{"trail", "commuting", "racing", "touring", "off-road"}
)

var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)under (?:€)?(\d+)`),
	regexp.MustCompile(`(?i)below (?:€)?(\d+)`),
	regexp.MustCompile(`(?i)max (?:€)?(\d+)`),
	regexp.MustCompile(`(?i)budget (?:of )?(?:€)?(\d+)`),
	regexp.MustCompile(`(?i)(?:€)?(\d+) (?:euro|eur)`),
}

// ProductHandler answers product inquiries: condensed keyword search over
// the catalog source, price post-filter, then an LLM-written summary of
// the retrieved records.
type ProductHandler struct {
	kb   Searcher
	llm  Generator
	topK int
}

// NewProductHandler creates a product retrieval handler.
func NewProductHandler(kb Searcher, llm Generator) *ProductHandler {
	return &ProductHandler{kb: kb, llm: llm, topK: 3}
}

// Search retrieves catalog products for the query. maxPriceEUR of 0 means
// no price ceiling. Retrieval failures and empty result sets both yield an
// empty list, never an error; the orchestrator asks a clarifying question.
func (h *ProductHandler) Search(ctx context.Context, query string, maxPriceEUR int) []ProductRecord {
	condensed := CondenseProductQuery(query)

	// Over-fetch so the price filter still leaves enough candidates.
	snippets, err := h.kb.Search(ctx, condensed, vectorstore.SourceProducts, h.topK*2)
	if err != nil {
		slog.Warn("product retrieval failed", "query", condensed, "err", err)
		return nil
	}

	products := make([]ProductRecord, 0, h.topK)
	for _, sn := range snippets {
		rec, ok := parseProduct(sn.Content)
		if !ok {
			continue
		}
		if maxPriceEUR > 0 && rec.PriceEUR > maxPriceEUR {
			continue
		}
		products = append(products, rec)
		if len(products) == h.topK {
			break
		}
	}
	return products
}

// Recommend writes a natural-language recommendation for the retrieved
// products. Generation failures degrade to a template summary.
func (h *ProductHandler) Recommend(ctx context.Context, query string, products []ProductRecord, prefs store.Preferences, recall []string) string {
	if len(products) == 0 {
		return noProductsReply
	}

	system := "You are a helpful bike shop sales assistant."
	if len(recall) > 0 {
		system += "\n\nWhat you remember about this customer:\n- " + strings.Join(recall, "\n- ")
	}
	prompt := buildRecommendationPrompt(query, prefs, formatProducts(products))

	text, err := h.llm.Generate(ctx, system, promptMessages(prompt))
	if err != nil {
		slog.Warn("recommendation generation failed", "err", err)
		return fallbackRecommendation(products)
	}
	return text
}

// CondenseProductQuery reduces a free-text query to 2-5 salient keywords:
// domain whitelist hits first, then the longest remaining words.
func CondenseProductQuery(query string) string {
	lower := strings.ToLower(query)
	var keywords []string
	for _, group := range [][]string{bikeTypes, bikeFeatures, bikeUses} {
		for _, kw := range group {
			if strings.Contains(lower, kw) {
				keywords = append(keywords, kw)
			}
		}
	}
	if len(keywords) == 0 {
		for _, w := range strings.Fields(lower) {
			if len(w) > 3 {
				keywords = append(keywords, strings.Trim(w, ".,!?"))
			}
			if len(keywords) == 3 {
				break
			}
		}
	}
	if len(keywords) == 0 {
		keywords = []string{"bike"}
	}
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	return strings.Join(keywords, " ")
}

// ExtractBudget finds a price ceiling in the message ("under 2000",
// "max €1500", "1500 euro"). Returns 0 when none is present.
func ExtractBudget(message string) int {
	for _, re := range budgetPatterns {
		if m := re.FindStringSubmatch(message); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return 0
}

// ExtractPreferences captures bike type and intended use mentioned in the
// message into the session preferences. Existing values are kept.
func ExtractPreferences(message string, prefs *store.Preferences) {
	lower := strings.ToLower(message)
	if prefs.BikeType == "" {
		for _, t := range bikeTypes {
			if strings.Contains(lower, t) {
				prefs.BikeType = t
				break
			}
		}
	}
	for _, u := range bikeUses {
		if strings.Contains(lower, u) && !containsString(prefs.IntendedUse, u) {
			prefs.IntendedUse = append(prefs.IntendedUse, u)
		}
	}
	if b := ExtractBudget(message); b > 0 {
		prefs.BudgetEUR = b
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// productDoc is the catalog document shape stored in the knowledge base.
type productDoc struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Brand         string   `json:"brand"`
	PriceEUR      int      `json:"price_eur"`
	FrameMaterial string   `json:"frame_material"`
	Gears         int      `json:"gears"`
	Brakes        string   `json:"brakes"`
	Suspension    string   `json:"suspension"`
	WheelSize     float64  `json:"wheel_size"`
	WeightKG      float64  `json:"weight_kg"`
	IntendedUse   []string `json:"intended_use"`
	Color         string   `json:"color"`
	MotorPowerW   int      `json:"motor_power_w,omitempty"`
	BatteryWh     int      `json:"battery_capacity_wh,omitempty"`
	RangeKM       int      `json:"range_km,omitempty"`
}

// parseProduct decodes a knowledge-base snippet into a product record.
// Snippets that are not product JSON are skipped.
func parseProduct(content string) (ProductRecord, bool) {
	var doc productDoc
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		// Some snippets embed the JSON object in surrounding text.
		start := strings.Index(content, "{")
		end := strings.LastIndex(content, "}")
		if start < 0 || end <= start {
			return ProductRecord{}, false
		}
		if err := json.Unmarshal([]byte(content[start:end+1]), &doc); err != nil {
			return ProductRecord{}, false
		}
	}
	if doc.Name == "" {
		return ProductRecord{}, false
	}
	return ProductRecord{
		ID:          doc.ID,
		Name:        doc.Name,
		Type:        doc.Type,
		Brand:       doc.Brand,
		PriceEUR:    doc.PriceEUR,
		KeyFeatures: fmt.Sprintf("%s frame, %d gears, %s", doc.FrameMaterial, doc.Gears, doc.Brakes),
		IntendedUse: doc.IntendedUse,
	}, true
}

func formatProducts(products []ProductRecord) string {
	var sb strings.Builder
	for i, p := range products {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, p.Name)
		fmt.Fprintf(&sb, "   Brand: %s\n", p.Brand)
		fmt.Fprintf(&sb, "   Type: %s\n", p.Type)
		fmt.Fprintf(&sb, "   Price: €%d\n", p.PriceEUR)
		fmt.Fprintf(&sb, "   Features: %s\n", p.KeyFeatures)
		if len(p.IntendedUse) > 0 {
			fmt.Fprintf(&sb, "   Intended use: %s\n", strings.Join(p.IntendedUse, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func fallbackRecommendation(products []ProductRecord) string {
	n := len(products)
	if n > 2 {
		n = 2
	}
	var sb strings.Builder
	sb.WriteString("Based on your needs, I recommend:")
	for _, p := range products[:n] {
		use := "various activities"
		if len(p.IntendedUse) > 0 {
			limit := len(p.IntendedUse)
			if limit > 2 {
				limit = 2
			}
			use = strings.Join(p.IntendedUse[:limit], ", ")
		}
		fmt.Fprintf(&sb, "\n- %s by %s (€%d): %s, perfect for %s.", p.Name, p.Brand, p.PriceEUR, p.KeyFeatures, use)
	}
	sb.WriteString("\n\nWould you like more details about any of these bikes?")
	return sb.String()
}

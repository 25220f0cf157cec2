package content

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BusinessInfo is what Analyze infers from a business website.
type BusinessInfo struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Services string `json:"services"`
	Tone     string `json:"tone"`
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 18_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/139.0.7258.60 Mobile/15E148 Safari/604.1",
}

type keyword struct{ key, value string }

// ordered: the first match wins
var industryKeywords = []keyword{
	{"gym", "Fitness"},
	{"salon", "Beauty"},
	{"cafe", "Cafe"},
	{"coffee", "Cafe"},
	{"restaurant", "Restaurant"},
	{"law", "Legal"},
	{"real estate", "Real Estate"},
	{"hotel", "Hospitality"},
	{"hospital", "Healthcare"},
}

var serviceKeywords = dedupe(
	// fitness
	"training", "personal trainer", "class", "yoga", "zumba", "cycling", "spin",
	"crossfit", "physiotherapy", "recovery", "assessment", "weight loss",
	"weight gain", "transformation", "body composition",
	// salon
	"haircut", "styling", "blow dry", "coloring", "highlight", "manicure", "pedicure",
	"facial", "massage", "threading", "waxing", "bridal", "makeup", "hair spa", "nail art",
	// cafe and restaurant
	"coffee", "tea", "pastry", "cake", "sandwich", "breakfast", "brunch",
	"smoothie", "latte", "espresso", "menu", "dessert", "vegan", "gluten-free", "specialty",
	"drinks", "food", "dinner", "lunch", "appetizer", "entrees", "wine", "cocktail",
	"specials", "vegetarian", "burgers", "pizza", "tacos", "fast food", "fine dining",
	"organic", "seafood", "pasta", "salads",
	// real estate
	"real estate", "property", "home", "house", "apartment", "sale", "rent", "listing",
	"agent", "broker", "mortgage", "sell", "investment property", "commercial property",
	"land", "open house", "housing market", "property management",
	// hotel
	"rooms", "booking", "suite", "luxury", "hospitality", "accommodation", "vacation", "stay",
	"check-in", "check-out", "reservation", "concierge", "pool", "spa", "conference rooms",
)

var toneKeywords = []struct {
	tone     string
	keywords []string
}{
	{"Friendly", []string{"welcome", "friendly", "enjoy", "fun", "smile", "hello", "join", "love", "happy", "comfortable"}},
	{"Professional", []string{"certified", "trusted", "professional", "expert", "experienced", "solutions", "team", "reliable", "quality", "trained"}},
	{"Luxury", []string{"exclusive", "premium", "luxury", "elegant", "refined", "high-end", "sophisticated", "tailored", "bespoke"}},
	{"Calm", []string{"relax", "calm", "peace", "soothing", "gentle", "tranquil", "unwind", "rejuvenate"}},
	{"Energetic", []string{"push", "power", "strong", "boost", "achieve", "results", "transform", "grind", "goal", "hustle", "train hard"}},
	{"Playful", []string{"yay", "woohoo", "let's go", "vibe", "awesome", "crazy", "quirky", "funny", "weird"}},
	{"Formal", []string{"corporate", "compliance", "legal", "policy", "agreement", "terms", "respect", "confidential"}},
}

var (
	hashtagRe   = regexp.MustCompile(`#\w+`)
	titleJunkRe = regexp.MustCompile(`[^\w\s\-|–—•]`)
	titleSepRe  = regexp.MustCompile(`[|\-–—•]`)
)

func dedupe(in ...string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

type Classifier struct {
	http *http.Client
}

func NewClassifier(timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{http: &http.Client{Timeout: timeout}}
}

// Analyze fetches the page at rawURL and infers name, industry, services and
// tone of voice from its markup and text.
func (c *Classifier) Analyze(ctx context.Context, rawURL string) (*BusinessInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	doc, err := html.Parse(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	info := Classify(doc)
	if info.Name == "" {
		info.Name = rawURL
	}
	return info, nil
}

// Classify runs the keyword tables over a parsed document.
func Classify(doc *html.Node) *BusinessInfo {
	var title, siteName string
	var text strings.Builder
	walk(doc, func(n *html.Node) bool {
		switch {
		case n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style):
			return false
		case n.Type == html.ElementNode && n.DataAtom == atom.Title && title == "":
			title = strings.TrimSpace(textOf(n))
		case n.Type == html.ElementNode && n.DataAtom == atom.Meta && attr(n, "property") == "og:site_name":
			siteName = attr(n, "content")
		case n.Type == html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				text.WriteString(t)
				text.WriteByte(' ')
			}
		}
		return true
	})

	raw := title
	if raw == "" {
		raw = siteName
	}
	name, cleaned := cleanTitle(raw)
	body := strings.ToLower(text.String())

	return &BusinessInfo{
		Name:     name,
		Industry: findIndustry(cleaned, body),
		Services: findServices(doc, body),
		Tone:     findTone(body),
	}
}

func cleanTitle(raw string) (title, cleaned string) {
	t := strings.TrimSpace(raw)
	if t == "" {
		return "", ""
	}
	t = hashtagRe.ReplaceAllString(t, "")
	t = titleJunkRe.ReplaceAllString(t, "")
	cleaned = strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(t, " | ", " "), "|", " "))
	title = strings.TrimSpace(titleSepRe.Split(t, 2)[0])
	return title, cleaned
}

func findIndustry(cleanedTitle, body string) string {
	lt := strings.ToLower(cleanedTitle)
	for _, kw := range industryKeywords {
		if strings.Contains(lt, kw.key) {
			return kw.value
		}
	}
	for _, kw := range industryKeywords {
		if strings.Contains(body, kw.key) {
			return kw.value
		}
	}
	return "Business"
}

// findServices collects short list items and headings inside sections whose
// id or class names a service keyword, plus every keyword found in the text.
func findServices(doc *html.Node, body string) string {
	found := make(map[string]bool)
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		marker := strings.ToLower(attr(n, "id") + " " + attr(n, "class"))
		if strings.TrimSpace(marker) == "" {
			return true
		}
		for _, kw := range serviceKeywords {
			if !strings.Contains(marker, kw) {
				continue
			}
			walk(n, func(item *html.Node) bool {
				if item.Type == html.ElementNode && (item.DataAtom == atom.Li || item.DataAtom == atom.H3 || item.DataAtom == atom.P) {
					t := strings.Join(strings.Fields(textOf(item)), " ")
					if words := len(strings.Fields(t)); words > 3 && words < 10 {
						found[t] = true
					}
				}
				return true
			})
			break
		}
		return true
	})
	for _, kw := range serviceKeywords {
		if strings.Contains(body, kw) {
			found[titleCase(kw)] = true
		}
	}
	if len(found) == 0 {
		return "General Services"
	}
	out := make([]string, 0, len(found))
	for s := range found {
		out = append(out, s)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

func findTone(body string) string {
	best, bestCount := "Professional", 0
	for _, t := range toneKeywords {
		count := 0
		for _, kw := range t.keywords {
			count += strings.Count(body, kw)
		}
		if count > bestCount {
			best, bestCount = t.tone, count
		}
	}
	return best
}

func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		return true
	})
	return strings.TrimSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jinzhu/inflection"
	"github.com/shopspring/decimal"
)

var (
	parenthesized = regexp.MustCompile(`\(.*?\)`)
	innerParen    = regexp.MustCompile(`\((.*?)\)`)
	// "each 220 g" or the Thai "ชิ้นละ 220 กรัม" (220 g per piece).
	perPiece = regexp.MustCompile(`(?:ละ|each)\s*([\d\s/.]+?)\s*(กรัม|มิลลิลิตร|มล\.?|ซีซี|ช้อนโต๊ะ|ช้อนชา|g|ml|tbsp|tsp)`)
	digits   = regexp.MustCompile(`\d+`)
	spaces   = regexp.MustCompile(`\s+`)
)

// The default rules singularize "leaves" to "leafe".
func init() {
	inflection.AddIrregular("leaf", "leaves")
	inflection.AddIrregular("loaf", "loaves")
}

// ParseQuantity parses "1", "1.5", "1/4" and "1 1/2" into an exact decimal.
// An empty string is no quantity.
func ParseQuantity(text string) (*decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	if whole, frac, ok := strings.Cut(text, " "); ok {
		w, err := ParseQuantity(whole)
		if err != nil {
			return nil, err
		}
		f, err := ParseQuantity(frac)
		if err != nil {
			return nil, err
		}
		sum := w.Add(*f)
		return &sum, nil
	}

	if num, den, ok := strings.Cut(text, "/"); ok {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", text, err)
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil || d.IsZero() {
			return nil, fmt.Errorf("invalid quantity %q: bad denominator", text)
		}
		q := n.DivRound(d, 4)
		return &q, nil
	}

	q, err := decimal.NewFromString(text)
	if err != nil {
		return nil, fmt.Errorf("invalid quantity %q: %w", text, err)
	}
	return &q, nil
}

// NormalizeIngredient strips parenthesised notes from a raw ingredient name
// and folds "N per piece" notes into the quantity: "beef (each 220 g)" with
// value 2 becomes beef, 440, g. Names are reduced to their singular form.
func NormalizeIngredient(rawName, value, unit string) (name string, qty *decimal.Decimal, outUnit string, err error) {
	name = NormalizeName(parenthesized.ReplaceAllString(rawName, ""))
	outUnit = strings.TrimSpace(unit)

	qty, err = ParseQuantity(value)
	if err != nil {
		return "", nil, "", err
	}

	if qty == nil {
		return name, nil, outUnit, nil
	}

	inside := innerParen.FindStringSubmatch(rawName)
	if inside == nil {
		return name, qty, outUnit, nil
	}
	m := perPiece.FindStringSubmatch(inside[1])
	if m == nil {
		return name, qty, outUnit, nil
	}
	per, perErr := ParseQuantity(m[1])
	if perErr != nil || per == nil {
		return name, qty, outUnit, nil
	}

	total := qty.Mul(*per)
	return name, &total, m[2], nil
}

// NormalizeName trims, collapses whitespace and singularises the last word,
// so "Eggs" and "egg" resolve to the same ingredient row.
func NormalizeName(name string) string {
	name = strings.TrimSpace(spaces.ReplaceAllString(name, " "))
	if name == "" {
		return ""
	}

	words := strings.Split(strings.ToLower(name), " ")
	last := len(words) - 1
	words[last] = inflection.Singular(words[last])
	return strings.Join(words, " ")
}

// ParseServings extracts the first number from text such as "6 servings".
func ParseServings(text string) *int {
	m := digits.FindString(text)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

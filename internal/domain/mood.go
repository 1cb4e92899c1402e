package domain

import "strings"

// MoodKey is the stable machine key of a mood.
type MoodKey string

// The closed set of moods.
const (
	MoodZokuzoku   MoodKey = "zokuzoku"
	MoodNakitai    MoodKey = "nakitai"
	MoodWakuwaku   MoodKey = "wakuwaku"
	MoodShinmiri   MoodKey = "shinmiri"
	MoodIyasaretai MoodKey = "iyasaretai"
	MoodShiritai   MoodKey = "shiritai"
	MoodKyun       MoodKey = "kyun"
	MoodWaraitai   MoodKey = "waraitai"
)

// Mood pairs a machine key with its human-facing label.
type Mood struct {
	Key   MoodKey `json:"key"`
	Label string  `json:"label"`
}

// allMoods is the display order.
//
//nolint:gochecknoglobals // Closed enumeration
var allMoods = []Mood{
	{Key: MoodZokuzoku, Label: "ゾクゾクしたい"},
	{Key: MoodNakitai, Label: "泣きたい"},
	{Key: MoodWakuwaku, Label: "ワクワクしたい"},
	{Key: MoodShinmiri, Label: "しんみりしたい"},
	{Key: MoodIyasaretai, Label: "癒されたい"},
	{Key: MoodShiritai, Label: "知りたい"},
	{Key: MoodKyun, Label: "キュンとしたい"},
	{Key: MoodWaraitai, Label: "笑いたい"},
}

//nolint:gochecknoglobals // Derived lookup tables
var (
	keyToLabel = func() map[MoodKey]string {
		m := make(map[MoodKey]string, len(allMoods))
		for _, mood := range allMoods {
			m[mood.Key] = mood.Label
		}
		return m
	}()
	labelToKey = func() map[string]MoodKey {
		m := make(map[string]MoodKey, len(allMoods))
		for _, mood := range allMoods {
			m[mood.Label] = mood.Key
		}
		return m
	}()
)

// Moods returns every mood in display order.
func Moods() []Mood {
	out := make([]Mood, len(allMoods))
	copy(out, allMoods)
	return out
}

// Label returns the human-facing label for the key, or "" if the key is unknown.
func (k MoodKey) Label() string {
	return keyToLabel[k]
}

// Valid reports whether k is a member of the closed mood set.
func (k MoodKey) Valid() bool {
	_, ok := keyToLabel[k]
	return ok
}

// KeyForLabel maps a label to its key.
func KeyForLabel(label string) (MoodKey, bool) {
	k, ok := labelToKey[label]
	return k, ok
}

// LabelForKey maps a key to its label.
func LabelForKey(key MoodKey) (string, bool) {
	l, ok := keyToLabel[key]
	return l, ok
}

// ParseMood accepts either a label or a key.
func ParseMood(s string) (MoodKey, bool) {
	if k, ok := labelToKey[s]; ok {
		return k, true
	}
	k := MoodKey(s)
	return k, k.Valid()
}

// ParseMoods converts labels or keys to keys, dropping unknown and
// repeated entries while keeping the input order.
func ParseMoods(in []string) []MoodKey {
	out := make([]MoodKey, 0, len(in))
	seen := make(map[MoodKey]bool, len(in))
	for _, s := range in {
		k, ok := ParseMood(strings.TrimSpace(s))
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// MoodScore is a derived relevance of a book for one mood, in [0,1].
type MoodScore struct {
	Mood  MoodKey `json:"mood"`
	Score float64 `json:"score"`
}

// ScoreFor returns the score for mood in scores, or 0 if absent.
func ScoreFor(scores []MoodScore, mood MoodKey) float64 {
	for _, s := range scores {
		if s.Mood == mood {
			return s.Score
		}
	}
	return 0
}

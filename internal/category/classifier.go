// Package category assigns registrants to age, weight and belt bands.
package category

import (
	"fmt"
	"strings"
	"time"

	"github.com/anshumansinghneu/kyokushin-karate-india-sub004/internal/bracket"
	"github.com/google/uuid"
)

type cohort int

const (
	cohortYouth cohort = iota
	cohortAdult
	cohortVeteran
)

type ageBand struct {
	maxAge int
	label  string
	cohort cohort
}

// Ordered, non-overlapping. The last band is open ended.
var ageBands = []ageBand{
	{maxAge: 11, label: "Under 12", cohort: cohortYouth},
	{maxAge: 15, label: "12-15", cohort: cohortYouth},
	{maxAge: 17, label: "16-17", cohort: cohortAdult},
	{maxAge: 35, label: "18-35", cohort: cohortAdult},
	{maxAge: -1, label: "36+ Veteran", cohort: cohortVeteran},
}

// Upper weight limits in kg per cohort, inclusive. Anything heavier goes to the open band.
var weightLimits = map[cohort][]float64{
	cohortYouth:   {30, 35, 40, 45, 50, 55},
	cohortAdult:   {60, 65, 70, 75, 80, 90},
	cohortVeteran: {70, 80, 90},
}

var beltBands = map[string]string{
	"white":  "Novice",
	"orange": "Novice",
	"blue":   "Novice",
	"yellow": "Intermediate",
	"green":  "Intermediate",
	"brown":  "Advanced",
	"black":  "Black Belt",
	"dan":    "Black Belt",
}

type Attributes struct {
	ParticipantID uuid.UUID
	DateOfBirth   *time.Time
	// Age overrides DateOfBirth when set.
	Age      *int
	WeightKg *float64
	Belt     string
}

type Bands struct {
	Age    string `json:"age_band"`
	Weight string `json:"weight_band"`
	Belt   string `json:"belt_band"`
}

// Classify returns the category bands for a participant competing on the given date.
func Classify(a Attributes, on time.Time) (Bands, error) {
	age, err := resolveAge(a, on)
	if err != nil {
		return Bands{}, err
	}
	if a.WeightKg == nil || *a.WeightKg <= 0 {
		return Bands{}, &bracket.AttributeError{ParticipantID: a.ParticipantID, Attribute: "weight"}
	}
	belt, err := ClassifyBelt(a.Belt)
	if err != nil {
		return Bands{}, &bracket.AttributeError{ParticipantID: a.ParticipantID, Attribute: "belt"}
	}

	band := classifyAge(age)
	return Bands{
		Age:    band.label,
		Weight: classifyWeight(band.cohort, *a.WeightKg),
		Belt:   belt,
	}, nil
}

func ClassifyAge(age int) string {
	return classifyAge(age).label
}

func ClassifyBelt(belt string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(belt))
	// "1st dan", "black 2nd dan" and similar
	if strings.Contains(key, "dan") || strings.HasPrefix(key, "black") {
		return beltBands["black"], nil
	}
	if band, ok := beltBands[key]; ok {
		return band, nil
	}
	return "", fmt.Errorf("belt %q: %w", belt, bracket.ErrMissingAttribute)
}

// AgeOn is the age in whole years on the given date.
func AgeOn(dob, on time.Time) int {
	years := on.Year() - dob.Year()
	if on.Month() < dob.Month() || (on.Month() == dob.Month() && on.Day() < dob.Day()) {
		years--
	}
	return years
}

func resolveAge(a Attributes, on time.Time) (int, error) {
	switch {
	case a.Age != nil:
		if *a.Age < 0 {
			return 0, &bracket.AttributeError{ParticipantID: a.ParticipantID, Attribute: "age"}
		}
		return *a.Age, nil
	case a.DateOfBirth != nil:
		if a.DateOfBirth.After(on) {
			return 0, &bracket.AttributeError{ParticipantID: a.ParticipantID, Attribute: "age"}
		}
		return AgeOn(*a.DateOfBirth, on), nil
	}
	return 0, &bracket.AttributeError{ParticipantID: a.ParticipantID, Attribute: "age"}
}

func classifyAge(age int) ageBand {
	for _, b := range ageBands {
		if b.maxAge < 0 || age <= b.maxAge {
			return b
		}
	}
	return ageBands[len(ageBands)-1]
}

func classifyWeight(c cohort, kg float64) string {
	limits := weightLimits[c]
	for _, limit := range limits {
		if kg <= limit {
			return fmt.Sprintf("-%gkg", limit)
		}
	}
	return fmt.Sprintf("+%gkg", limits[len(limits)-1])
}

package patient

import (
	"errors"
	"fmt"
	"strings"
)

var (
	errMissingField = errors.New("missing field")
	errInvalidValue = errors.New("invalid value")
	errOutOfRange   = errors.New("value out of range")
)

type ValidationError struct {
	Field  string
	reason error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.reason.Error())
}

func (e ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Bound is an inclusive input range accepted at the intake boundary.
type Bound struct {
	Min float64
	Max float64
}

// InputBounds are the widget limits of the intake form. They reject typos and
// unit mistakes, not clinically unusual values.
var InputBounds = map[Field]Bound{
	FieldAge:        {0, 120},
	FieldEducation:  {1, 4},
	FieldCigsPerDay: {0, 100},
	FieldTotChol:    {0, 700},
	FieldSysBP:      {0, 300},
	FieldDiaBP:      {0, 200},
	FieldBMI:        {0, 100},
	FieldHeartRate:  {0, 250},
	FieldGlucose:    {0, 500},
}

// Form is the raw intake payload. Numeric fields left out take the form
// defaults; categorical fields are required.
type Form struct {
	Age             *float64 `json:"age,omitempty"`
	Education       *int     `json:"education,omitempty"`
	Sex             string   `json:"sex"`
	IsSmoking       string   `json:"is_smoking"`
	CigsPerDay      *float64 `json:"cigsPerDay,omitempty"`
	BPMeds          string   `json:"BPMeds"`
	PrevalentStroke string   `json:"prevalentStroke"`
	PrevalentHyp    string   `json:"prevalentHyp"`
	Diabetes        string   `json:"diabetes"`
	TotChol         *float64 `json:"totChol,omitempty"`
	SysBP           *float64 `json:"sysBP,omitempty"`
	DiaBP           *float64 `json:"diaBP,omitempty"`
	BMI             *float64 `json:"BMI,omitempty"`
	HeartRate       *float64 `json:"heartRate,omitempty"`
	Glucose         *float64 `json:"glucose,omitempty"`
}

var formDefaults = map[Field]float64{
	FieldAge:        30,
	FieldEducation:  1,
	FieldCigsPerDay: 0,
	FieldTotChol:    200,
	FieldSysBP:      120,
	FieldDiaBP:      80,
	FieldBMI:        25,
	FieldHeartRate:  70,
	FieldGlucose:    80,
}

// Record parses and range-checks the form.
func (f Form) Record() (Record, error) {
	var rec Record
	var err error

	if rec.Sex, err = ParseSex(f.Sex); err != nil {
		return Record{}, err
	}

	flags := []struct {
		field Field
		raw   string
		dst   *bool
	}{
		{FieldIsSmoking, f.IsSmoking, &rec.IsSmoking},
		{FieldBPMeds, f.BPMeds, &rec.BPMeds},
		{FieldPrevalentStroke, f.PrevalentStroke, &rec.PrevalentStroke},
		{FieldPrevalentHyp, f.PrevalentHyp, &rec.PrevalentHyp},
		{FieldDiabetes, f.Diabetes, &rec.Diabetes},
	}
	for _, fl := range flags {
		if *fl.dst, err = ParseYesNo(fl.field, fl.raw); err != nil {
			return Record{}, err
		}
	}

	numbers := []struct {
		field Field
		raw   *float64
		dst   *float64
	}{
		{FieldAge, f.Age, &rec.Age},
		{FieldCigsPerDay, f.CigsPerDay, &rec.CigsPerDay},
		{FieldTotChol, f.TotChol, &rec.TotChol},
		{FieldSysBP, f.SysBP, &rec.SysBP},
		{FieldDiaBP, f.DiaBP, &rec.DiaBP},
		{FieldBMI, f.BMI, &rec.BMI},
		{FieldHeartRate, f.HeartRate, &rec.HeartRate},
		{FieldGlucose, f.Glucose, &rec.Glucose},
	}
	for _, n := range numbers {
		value := formDefaults[n.field]
		if n.raw != nil {
			value = *n.raw
		}
		if err := checkBound(n.field, value); err != nil {
			return Record{}, err
		}
		*n.dst = value
	}

	education := int(formDefaults[FieldEducation])
	if f.Education != nil {
		education = *f.Education
	}
	if err := checkBound(FieldEducation, float64(education)); err != nil {
		return Record{}, err
	}
	rec.Education = education

	return rec, nil
}

// ParseSex accepts "M" or "F" in any case.
func ParseSex(raw string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return "", ValidationError{Field: string(FieldSex), reason: errMissingField}
	case string(SexMale):
		return SexMale, nil
	case string(SexFemale):
		return SexFemale, nil
	}
	return "", ValidationError{Field: string(FieldSex), reason: fmt.Errorf("%q: %w", raw, errInvalidValue)}
}

// ParseYesNo accepts "YES" or "NO" in any case.
func ParseYesNo(field Field, raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return false, ValidationError{Field: string(field), reason: errMissingField}
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	}
	return false, ValidationError{Field: string(field), reason: fmt.Errorf("%q: %w", raw, errInvalidValue)}
}

func checkBound(field Field, value float64) error {
	b, ok := InputBounds[field]
	if !ok {
		return nil
	}
	if value < b.Min || value > b.Max {
		return ValidationError{
			Field:  string(field),
			reason: fmt.Errorf("%v not in [%v, %v]: %w", value, b.Min, b.Max, errOutOfRange),
		}
	}
	return nil
}

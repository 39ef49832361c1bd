package patient

// Sex is the reported biological sex on the intake form.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// HypertensionCategory is the ordinal derived from the stroke and
// hypertension flags.
type HypertensionCategory int

const (
	HypertensionNone    HypertensionCategory = 0
	HypertensionPresent HypertensionCategory = 1
	HypertensionStroke  HypertensionCategory = 2
)

// Field names a single addressable value of a Record. The string form is the
// column name used by the training data set.
type Field string

const (
	FieldAge                  Field = "age"
	FieldEducation            Field = "education"
	FieldSex                  Field = "sex"
	FieldIsSmoking            Field = "is_smoking"
	FieldCigsPerDay           Field = "cigsPerDay"
	FieldBPMeds               Field = "BPMeds"
	FieldPrevalentStroke      Field = "prevalentStroke"
	FieldPrevalentHyp         Field = "prevalentHyp"
	FieldDiabetes             Field = "diabetes"
	FieldTotChol              Field = "totChol"
	FieldSysBP                Field = "sysBP"
	FieldDiaBP                Field = "diaBP"
	FieldBMI                  Field = "BMI"
	FieldHeartRate            Field = "heartRate"
	FieldGlucose              Field = "glucose"
	FieldHypertensionCategory Field = "hypertension_category"
)

// Fields lists every addressable field in intake-form order.
func Fields() []Field {
	return []Field{
		FieldAge, FieldEducation, FieldSex, FieldIsSmoking, FieldCigsPerDay,
		FieldBPMeds, FieldPrevalentStroke, FieldPrevalentHyp, FieldDiabetes,
		FieldTotChol, FieldSysBP, FieldDiaBP, FieldBMI, FieldHeartRate,
		FieldGlucose, FieldHypertensionCategory,
	}
}

// Record is a validated patient snapshot. It lives for a single assessment.
type Record struct {
	Age             float64 `json:"age"`
	Education       int     `json:"education"`
	Sex             Sex     `json:"sex"`
	IsSmoking       bool    `json:"is_smoking"`
	CigsPerDay      float64 `json:"cigsPerDay"`
	BPMeds          bool    `json:"BPMeds"`
	PrevalentStroke bool    `json:"prevalentStroke"`
	PrevalentHyp    bool    `json:"prevalentHyp"`
	Diabetes        bool    `json:"diabetes"`
	TotChol         float64 `json:"totChol"`
	SysBP           float64 `json:"sysBP"`
	DiaBP           float64 `json:"diaBP"`
	BMI             float64 `json:"BMI"`
	HeartRate       float64 `json:"heartRate"`
	Glucose         float64 `json:"glucose"`
}

// HypertensionCategory derives the ordinal: stroke wins over hypertension,
// which wins over neither.
func (r Record) HypertensionCategory() HypertensionCategory {
	switch {
	case r.PrevalentStroke:
		return HypertensionStroke
	case r.PrevalentHyp:
		return HypertensionPresent
	default:
		return HypertensionNone
	}
}

// Value returns the numeric value of f. Flags are 1 when set, sex is 1 for
// male. Unknown fields report ok=false.
func (r Record) Value(f Field) (float64, bool) {
	switch f {
	case FieldAge:
		return r.Age, true
	case FieldEducation:
		return float64(r.Education), true
	case FieldSex:
		return flag(r.Sex == SexMale), true
	case FieldIsSmoking:
		return flag(r.IsSmoking), true
	case FieldCigsPerDay:
		return r.CigsPerDay, true
	case FieldBPMeds:
		return flag(r.BPMeds), true
	case FieldPrevalentStroke:
		return flag(r.PrevalentStroke), true
	case FieldPrevalentHyp:
		return flag(r.PrevalentHyp), true
	case FieldDiabetes:
		return flag(r.Diabetes), true
	case FieldTotChol:
		return r.TotChol, true
	case FieldSysBP:
		return r.SysBP, true
	case FieldDiaBP:
		return r.DiaBP, true
	case FieldBMI:
		return r.BMI, true
	case FieldHeartRate:
		return r.HeartRate, true
	case FieldGlucose:
		return r.Glucose, true
	case FieldHypertensionCategory:
		return float64(r.HypertensionCategory()), true
	}
	return 0, false
}

// KnownField reports whether f can be read from a Record.
func KnownField(f Field) bool {
	_, ok := Record{}.Value(f)
	return ok
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

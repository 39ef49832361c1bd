package features

import (
	"fmt"
	"sort"

	"github.com/synaptica-ai/cardiorisk/pkg/patient"
)

const (
	LayoutBinaryV1 = "binary-v1"
	LayoutOneHotV2 = "onehot-v2"
)

var builtins = map[string]*Layout{
	LayoutBinaryV1: mustLayout(binaryV1()),
	LayoutOneHotV2: mustLayout(oneHotV2()),
}

// Lookup returns a built-in layout by name.
func Lookup(name string) (*Layout, error) {
	l, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownLayout)
	}
	return l, nil
}

// Names lists the built-in layouts.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// binaryV1 is the 13 column layout of the first random forest model.
// Stroke and hypertension are present both as flags and folded into
// hypertension_category. The scaler was fitted on seven continuous columns.
func binaryV1() (*Layout, error) {
	columns := []Column{
		Raw("age", patient.FieldAge),
		Raw("education", patient.FieldEducation),
		Raw("sex", patient.FieldSex),
		Raw("cigsPerDay", patient.FieldCigsPerDay),
		Raw("BPMeds", patient.FieldBPMeds),
		Raw("prevalentStroke", patient.FieldPrevalentStroke),
		Raw("prevalentHyp", patient.FieldPrevalentHyp),
		Raw("diabetes", patient.FieldDiabetes),
		Raw("totChol", patient.FieldTotChol),
		Raw("BMI", patient.FieldBMI),
		Raw("heartRate", patient.FieldHeartRate),
		Raw("glucose", patient.FieldGlucose),
		Raw("hypertension_category", patient.FieldHypertensionCategory),
	}
	scaled := []string{"age", "cigsPerDay", "totChol", "heartRate", "hypertension_category", "BMI", "glucose"}
	return NewLayout(LayoutBinaryV1, EncodingBinary, columns, scaled)
}

// oneHotV2 matches pandas.get_dummies output: continuous columns first, then
// one pair of indicators per categorical. The scaler input order puts
// heartRate before BMI, unlike the model order.
func oneHotV2() (*Layout, error) {
	columns := []Column{
		Raw("age", patient.FieldAge),
		Raw("education", patient.FieldEducation),
		Raw("cigsPerDay", patient.FieldCigsPerDay),
		Raw("totChol", patient.FieldTotChol),
		Raw("sysBP", patient.FieldSysBP),
		Raw("diaBP", patient.FieldDiaBP),
		Raw("BMI", patient.FieldBMI),
		Raw("heartRate", patient.FieldHeartRate),
		Raw("glucose", patient.FieldGlucose),
	}
	columns = append(columns, OneHot(patient.FieldSex, "sex_F", "sex_M")...)
	columns = append(columns, OneHot(patient.FieldIsSmoking, "is_smoking_NO", "is_smoking_YES")...)
	columns = append(columns, OneHot(patient.FieldBPMeds, "BPMeds_0.0", "BPMeds_1.0")...)
	columns = append(columns, OneHot(patient.FieldPrevalentStroke, "prevalentStroke_0", "prevalentStroke_1")...)
	columns = append(columns, OneHot(patient.FieldPrevalentHyp, "prevalentHyp_0", "prevalentHyp_1")...)
	columns = append(columns, OneHot(patient.FieldDiabetes, "diabetes_0", "diabetes_1")...)

	scaled := []string{"age", "education", "cigsPerDay", "totChol", "sysBP", "diaBP", "heartRate", "BMI", "glucose"}
	return NewLayout(LayoutOneHotV2, EncodingOneHot, columns, scaled)
}

func mustLayout(l *Layout, err error) *Layout {
	if err != nil {
		panic(err)
	}
	return l
}

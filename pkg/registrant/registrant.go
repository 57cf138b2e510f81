// Package registrant defines the single flat record collected by the
// registration form. A Registrant is only ever built from values that passed
// validation; it has no identifier and is never persisted.
package registrant

import (
	"fmt"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Gender enumerates the accepted gender values.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Education enumerates the accepted education levels.
type Education string

const (
	EducationHighSchool Education = "highSchool"
	EducationCollege    Education = "college"
	EducationBachelor   Education = "bachelor"
	EducationMaster     Education = "master"
	EducationDoctor     Education = "doctor"
)

// Income enumerates monthly income ranges.
type Income string

const (
	IncomeBelow5k  Income = "below5k"
	Income5to10k   Income = "5k-10k"
	Income10to20k  Income = "10k-20k"
	Income20to30k  Income = "20k-30k"
	Income30to50k  Income = "30k-50k"
	IncomeAbove50k Income = "above50k"
)

// MarriageStatus enumerates marital states.
type MarriageStatus string

const (
	MarriageSingle   MarriageStatus = "single"
	MarriageDivorced MarriageStatus = "divorced"
	MarriageWidowed  MarriageStatus = "widowed"
)

// YesNo is used by the long-distance, house and car questions.
type YesNo string

const (
	Yes YesNo = "yes"
	No  YesNo = "no"
)

// Field names shared by the schema, the HTML form and the card.
const (
	FieldName                = "name"
	FieldGender              = "gender"
	FieldAge                 = "age"
	FieldHeight              = "height"
	FieldWeight              = "weight"
	FieldPhone               = "phone"
	FieldEducation           = "education"
	FieldOccupation          = "occupation"
	FieldIncome              = "income"
	FieldMarriageStatus      = "marriageStatus"
	FieldAcceptLongDistance  = "acceptLongDistance"
	FieldHouse               = "house"
	FieldCar                 = "car"
	FieldLocation            = "location"
	FieldPhoto               = "photo"
	FieldDescription         = "description"
	FieldPartnerRequirements = "partnerRequirements"
)

// Registrant is one person's profile.
type Registrant struct {
	Name                string         `json:"name" mapstructure:"name"`
	Gender              Gender         `json:"gender" mapstructure:"gender"`
	Age                 int            `json:"age" mapstructure:"age"`
	Height              float64        `json:"height" mapstructure:"height"`
	Weight              float64        `json:"weight" mapstructure:"weight"`
	Phone               string         `json:"phone" mapstructure:"phone"`
	Education           Education      `json:"education" mapstructure:"education"`
	Occupation          string         `json:"occupation" mapstructure:"occupation"`
	Income              Income         `json:"income" mapstructure:"income"`
	MarriageStatus      MarriageStatus `json:"marriageStatus" mapstructure:"marriageStatus"`
	AcceptLongDistance  YesNo          `json:"acceptLongDistance" mapstructure:"acceptLongDistance"`
	House               YesNo          `json:"house" mapstructure:"house"`
	Car                 YesNo          `json:"car" mapstructure:"car"`
	Location            string         `json:"location" mapstructure:"location"`
	Description         string         `json:"description" mapstructure:"description"`
	PartnerRequirements string         `json:"partnerRequirements" mapstructure:"partnerRequirements"`
}

// Defaults returns the values of a fresh or reset form. Text fields start
// empty and no photo is attached.
func Defaults() map[string]string {
	return map[string]string{
		FieldGender:             string(GenderMale),
		FieldAge:                "25",
		FieldHeight:             "170",
		FieldWeight:             "65",
		FieldEducation:          string(EducationBachelor),
		FieldIncome:             string(Income10to20k),
		FieldMarriageStatus:     string(MarriageSingle),
		FieldAcceptLongDistance: string(Yes),
		FieldHouse:              string(Yes),
		FieldCar:                string(Yes),
	}
}

// FromValues decodes validated values (strings or JSON numbers) into a
// Registrant.
func FromValues(values map[string]any) (Registrant, error) {
	var r Registrant
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &r,
	})
	if err != nil {
		return Registrant{}, fmt.Errorf("registrant: decoder: %w", err)
	}
	if err := decoder.Decode(values); err != nil {
		return Registrant{}, fmt.Errorf("registrant: decode values: %w", err)
	}
	return r, nil
}

// Values flattens the registrant back into form values, the inverse of
// FromValues for string inputs.
func (r Registrant) Values() map[string]string {
	return map[string]string{
		FieldName:                r.Name,
		FieldGender:              string(r.Gender),
		FieldAge:                 strconv.Itoa(r.Age),
		FieldHeight:              FormatNumber(r.Height),
		FieldWeight:              FormatNumber(r.Weight),
		FieldPhone:               r.Phone,
		FieldEducation:           string(r.Education),
		FieldOccupation:          r.Occupation,
		FieldIncome:              string(r.Income),
		FieldMarriageStatus:      string(r.MarriageStatus),
		FieldAcceptLongDistance:  string(r.AcceptLongDistance),
		FieldHouse:               string(r.House),
		FieldCar:                 string(r.Car),
		FieldLocation:            r.Location,
		FieldDescription:         r.Description,
		FieldPartnerRequirements: r.PartnerRequirements,
	}
}

// FormatNumber prints a measurement without a trailing ".0".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Package card builds the registrant summary shown after a successful
// submission and rasterises it to the PNG handed to the operator.
package card

import (
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-matchcard/pkg/model"
	"github.com/goliatone/go-matchcard/pkg/registrant"
	"github.com/goliatone/go-matchcard/pkg/render"
)

// TimestampLayout formats the registration time on the card.
const TimestampLayout = "2006-01-02 15:04"

// Detail is one labelled value.
type Detail struct {
	Key   string
	Label string
	Value string
}

// View is the summary card content, already localised.
type View struct {
	Title     string
	Subtitle  string
	Name      string
	Headline  string
	PhotoURL  string
	Details   []Detail
	Texts     []Detail
	Timestamp Detail

	RegisteredAt time.Time
}

// ViewOptions carries the per-request context for NewView.
type ViewOptions struct {
	Render   render.RenderOptions
	PhotoURL string
	Now      time.Time
}

// NewView builds the card for a registrant. form must be the localised form
// model so option labels and units are already translated. Free text is kept
// verbatim.
func NewView(reg registrant.Registrant, form model.FormModel, opts ViewOptions) View {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	t := func(key, fallback string) string {
		return render.Translate(opts.Render, key, fallback)
	}
	option := func(name, value string) string {
		if field, ok := form.Field(name); ok {
			return render.OptionLabel(field, value)
		}
		return value
	}
	unit := func(name, fallback string) string {
		if field, ok := form.Field(name); ok {
			if u := field.UIHints["unit"]; u != "" {
				return u
			}
		}
		return fallback
	}

	ageUnit := unit(registrant.FieldAge, "")
	headline := []string{
		option(registrant.FieldGender, string(reg.Gender)),
		strconv.Itoa(reg.Age) + ageUnit,
		reg.Location,
	}

	view := View{
		Title:    t("summary.title", "Registration"),
		Subtitle: t("summary.subtitle", ""),
		Name:     reg.Name,
		Headline: strings.Join(headline, " | "),
		PhotoURL: opts.PhotoURL,
		Details: []Detail{
			{
				Key:   "heightWeight",
				Label: t("card.heightWeight", "Height / Weight"),
				Value: registrant.FormatNumber(reg.Height) + unit(registrant.FieldHeight, "cm") +
					" / " + registrant.FormatNumber(reg.Weight) + unit(registrant.FieldWeight, "kg"),
			},
			{Key: registrant.FieldPhone, Label: t("card.phone", "Phone"), Value: reg.Phone},
			{Key: registrant.FieldEducation, Label: t("card.education", "Education"), Value: option(registrant.FieldEducation, string(reg.Education))},
			{Key: registrant.FieldOccupation, Label: t("card.occupation", "Occupation"), Value: reg.Occupation},
			{Key: registrant.FieldIncome, Label: t("card.income", "Income"), Value: option(registrant.FieldIncome, string(reg.Income))},
			{Key: registrant.FieldMarriageStatus, Label: t("card.marriageStatus", "Marital status"), Value: option(registrant.FieldMarriageStatus, string(reg.MarriageStatus))},
			{Key: registrant.FieldAcceptLongDistance, Label: t("card.acceptLongDistance", "Long distance"), Value: option(registrant.FieldAcceptLongDistance, string(reg.AcceptLongDistance))},
			{Key: registrant.FieldHouse, Label: t("card.house", "House"), Value: option(registrant.FieldHouse, string(reg.House))},
			{Key: registrant.FieldCar, Label: t("card.car", "Car"), Value: option(registrant.FieldCar, string(reg.Car))},
		},
		Texts: []Detail{
			{Key: registrant.FieldDescription, Label: t("card.description", "About me"), Value: reg.Description},
			{Key: registrant.FieldPartnerRequirements, Label: t("card.partnerRequirements", "Partner requirements"), Value: reg.PartnerRequirements},
		},
		Timestamp: Detail{
			Key:   "registeredAt",
			Label: t("card.registeredAt", "Registered"),
			Value: now.Format(TimestampLayout),
		},
		RegisteredAt: now,
	}
	return view
}

// Filename returns the export name: <prefix>-<name>-<date>.png. Path
// separators in the name are replaced so the result is a single segment.
func Filename(prefix, name string, at time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, strings.TrimSpace(name))

	parts := make([]string, 0, 3)
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		parts = append(parts, prefix)
	}
	if clean != "" {
		parts = append(parts, clean)
	}
	parts = append(parts, at.Format("2006-01-02"))
	return strings.Join(parts, "-") + ".png"
}

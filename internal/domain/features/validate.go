package features

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/okian/gigrec/internal/domain/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		// Report json names so API clients see the field they sent.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

func validateProject(id string, f model.ProjectFeatures) error {
	return check(model.KindProject, id, &f, f.BudgetMin, f.BudgetMax)
}

func validateFreelancer(id string, f model.FreelancerFeatures) error {
	return check(model.KindFreelancer, id, &f, f.HourlyRate, f.Rating, f.ExperienceYears)
}

func check(kind model.ItemKind, id string, payload any, numbers ...float64) error {
	var fields []FieldError
	switch {
	case strings.TrimSpace(id) == "":
		fields = append(fields, FieldError{Field: "id", Tag: "required"})
	case strings.TrimSpace(id) != id:
		// Lookups use the id verbatim, so it must be stored verbatim.
		fields = append(fields, FieldError{Field: "id", Tag: "trimmed"})
	}
	for _, n := range numbers {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			fields = append(fields, FieldError{Field: "number", Tag: "finite"})
			break
		}
	}

	if err := getValidator().Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &ValidationError{Kind: kind, ID: id, Fields: []FieldError{{Field: "payload", Tag: err.Error()}}}
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, ID: id, Fields: fields}
}

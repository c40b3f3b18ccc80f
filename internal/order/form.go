package order

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NotEnoughGoodsField collects the stock and availability errors of a checkout.
const NotEnoughGoodsField = "not_enough_goods"

// CheckoutInput is the checkout form. The binding tags are read by gin's
// validator and by NewValidator.
type CheckoutInput struct {
	Name               string `form:"name" json:"name" binding:"required,max=100"`
	Phone              string `form:"phone" json:"phone" binding:"required,phone"`
	Email              string `form:"email" json:"email" binding:"required,email"`
	DeliveryCategoryID int64  `form:"delivery_category" json:"delivery_category" binding:"required,gt=0"`
	City               string `form:"city" json:"city" binding:"required,max=100"`
	Address            string `form:"address" json:"address" binding:"required,max=256"`
	Comment            string `form:"comment" json:"comment" binding:"max=500"`
	PaymentCategory    string `form:"payment_category" json:"payment_category" binding:"required,max=15"`
	// IsFreeDelivery is an HTML checkbox ("on"); the handler reads it.
	IsFreeDelivery bool `form:"-" json:"is_free_delivery"`
}

// FieldErrors maps a form field to its messages.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

var (
	phonePattern  = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)
	phoneReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// NormalizePhone drops the separators people type between digit groups.
func NormalizePhone(raw string) string {
	return phoneReplacer.Replace(strings.TrimSpace(raw))
}

func validPhone(fl validator.FieldLevel) bool {
	return phonePattern.MatchString(NormalizePhone(fl.Field().String()))
}

// RegisterValidators adds the checkout rules to v and reports errors under
// the form field names.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("phone", validPhone); err != nil {
		return fmt.Errorf("register phone validator: %w", err)
	}
	return nil
}

// NewValidator returns a validator reading binding tags, the way gin does.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	// only fails on a bad tag name
	_ = RegisterValidators(v)
	return v
}

// TranslateValidation turns a validator error into per-field messages. Other
// errors (malformed form data) land under "__all__".
func TranslateValidation(err error) FieldErrors {
	out := FieldErrors{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("__all__", "Invalid form data.")
		return out
	}

	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe))
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "gt":
		return "Select a valid choice."
	}
	return "Invalid value."
}

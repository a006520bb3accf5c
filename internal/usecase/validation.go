package usecase

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"edubot/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Same pattern the signup form has always enforced: a leading '+', a
// non-zero digit, then up to 14 more digits.
var phonePattern = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("class", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.Classes(), fl.Field().String())
	})
	_ = v.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return slices.Contains(domain.Subjects, fl.Field().String())
	})
	return v
}

// rule is one check; other is compared against for cross-field tags.
type rule struct {
	value any
	other any
	tag   string
	msg   string
}

// firstViolation runs rules in order and returns the first failure as a
// *domain.ValidationError.
func firstViolation(rules ...rule) error {
	for _, r := range rules {
		var err error
		if r.other != nil {
			err = validate.VarWithValue(r.value, r.other, r.tag)
		} else {
			err = validate.Var(r.value, r.tag)
		}
		if err == nil {
			continue
		}
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return domain.Invalid(r.msg)
		}
		return err
	}
	return nil
}

func required(msg string, values ...string) []rule {
	out := make([]rule, 0, len(values))
	for _, v := range values {
		out = append(out, rule{value: strings.TrimSpace(v), tag: "required", msg: msg})
	}
	return out
}

const (
	msgFillAll       = "Please fill in all fields"
	msgBadEmail      = "Please enter a valid email address"
	msgShortPassword = "Password must be at least 8 characters long"
	msgPasswordMatch = "Passwords do not match"
	msgBadPhone      = "Please enter a valid phone number (e.g., +911234567890)"
	msgTerms         = "Please accept the terms and conditions"
	msgBadRole       = "Please choose a role: STUDENT or ADMIN"
	msgOTP           = "Please enter the complete 6-digit OTP"
	msgUploadFields  = "Please fill in all required fields (Class, Subject, Topic)"
	msgBadClass      = "Please select a class between 1 and 10"
	msgBadSubject    = "Please select one of: Mathematics, Physics, Chemistry, Biology, Social Science"
	msgBadSource     = "Source type must be pdf or web"
	msgNeedPDF       = "Please select a PDF file to upload"
	msgNotPDF        = "Please select a valid PDF file"
	msgNeedURL       = "Please enter a URL"
	msgBadURL        = "Please enter a valid URL"
)

func validateSignup(f domain.SignupForm) error {
	rules := required(msgFillAll, f.Name, f.Email, f.Password, f.ConfirmPassword, f.Phone, f.Class)
	rules = append(rules,
		rule{value: f.Email, tag: "contains=@", msg: msgBadEmail},
		rule{value: f.Password, tag: "min=8", msg: msgShortPassword},
		rule{value: f.ConfirmPassword, other: f.Password, tag: "eqfield", msg: msgPasswordMatch},
		rule{value: f.Phone, tag: "phone", msg: msgBadPhone},
		rule{value: f.AcceptTerms, tag: "required", msg: msgTerms},
		rule{value: string(f.Role), tag: "oneof=STUDENT ADMIN", msg: msgBadRole},
	)
	return firstViolation(rules...)
}

func validateLogin(f domain.LoginForm) error {
	rules := required(msgFillAll, f.Email, f.Password)
	rules = append(rules, rule{value: f.Email, tag: "contains=@", msg: msgBadEmail})
	return firstViolation(rules...)
}

func validateOTP(code string) error {
	return firstViolation(rule{value: code, tag: "len=6,number", msg: msgOTP})
}

func validateThread(f domain.ThreadForm) error {
	rules := required(msgFillAll, f.Class, f.Subject, f.Topic)
	rules = append(rules,
		rule{value: f.Class, tag: "class", msg: msgBadClass},
		rule{value: f.Subject, tag: "subject", msg: msgBadSubject},
	)
	return firstViolation(rules...)
}

// validateUpload checks the form fields; the PDF type itself is checked
// once the file has been read.
func validateUpload(f domain.UploadForm) error {
	rules := required(msgUploadFields, f.Class, f.Subject, f.Topic)
	rules = append(rules,
		rule{value: f.Class, tag: "class", msg: msgBadClass},
		rule{value: f.Subject, tag: "subject", msg: msgBadSubject},
		rule{value: string(f.SourceType), tag: "oneof=pdf web", msg: msgBadSource},
	)
	if err := firstViolation(rules...); err != nil {
		return err
	}
	switch f.SourceType {
	case domain.SourcePDF:
		return firstViolation(rule{value: f.FilePath, tag: "required", msg: msgNeedPDF})
	default:
		return firstViolation(
			rule{value: strings.TrimSpace(f.URL), tag: "required", msg: msgNeedURL},
			rule{value: strings.TrimSpace(f.URL), tag: "url", msg: msgBadURL},
		)
	}
}

// normalizeOTP keeps the first six characters, the way a pasted code fills
// the six input boxes.
func normalizeOTP(raw string) string {
	code := strings.Join(strings.Fields(raw), "")
	if r := []rune(code); len(r) > 6 {
		code = string(r[:6])
	}
	return code
}

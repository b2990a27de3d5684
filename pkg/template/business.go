package template

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BusinessContext carries the business details injected into every render
// under the business.* namespace. It is operator-maintained configuration,
// typically loaded from a YAML profile at startup.
type BusinessContext struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
	Hours   string `yaml:"hours"`
	Website string `yaml:"website"`
}

// asMap exposes the context as template data under well-known keys.
func (b BusinessContext) asMap() map[string]any {
	return map[string]any{
		"name":    b.Name,
		"address": b.Address,
		"phone":   b.Phone,
		"email":   b.Email,
		"hours":   b.Hours,
		"website": b.Website,
	}
}

// LoadBusinessProfile reads a BusinessContext from a YAML file.
//
// Example profile:
//
//	name: Happy Paws Grooming
//	phone: "+1 555 0100"
//	hours: Mon-Sat 9am-6pm
func LoadBusinessProfile(path string) (BusinessContext, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return BusinessContext{}, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return BusinessContext{}, errors.Join(ErrInvalidProfile, err)
	}

	var ctx BusinessContext
	if err := yaml.Unmarshal(raw, &ctx); err != nil {
		return BusinessContext{}, errors.Join(ErrInvalidProfile, err)
	}
	if ctx.Name == "" {
		return BusinessContext{}, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}

	return ctx, nil
}

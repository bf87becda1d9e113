// bolaget-mcp - Systembolaget Model Context Protocol server
// License: MIT

package tools

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// validate is shared across all input types. Field names in error messages
// use the mapstructure tag so they match what the caller actually sent.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return v
}

// SearchProductsInput are the arguments for systembolaget_search_products.
type SearchProductsInput struct {
	Query      string   `mapstructure:"query"`
	Category   string   `mapstructure:"category"`
	MinPrice   *float64 `mapstructure:"min_price" validate:"omitempty,gte=0"`
	MaxPrice   *float64 `mapstructure:"max_price" validate:"omitempty,gte=0"`
	MinAlcohol *float64 `mapstructure:"min_alcohol" validate:"omitempty,gte=0,lte=100"`
	MaxAlcohol *float64 `mapstructure:"max_alcohol" validate:"omitempty,gte=0,lte=100"`
	Country    string   `mapstructure:"country"`
	Limit      int      `mapstructure:"limit" validate:"min=1,max=100"`
	Offset     int      `mapstructure:"offset" validate:"gte=0"`
	Format     string   `mapstructure:"format" validate:"oneof=markdown json"`
}

// GetProductInput are the arguments for systembolaget_get_product.
type GetProductInput struct {
	ProductNumber string `mapstructure:"product_number" validate:"required"`
	Format        string `mapstructure:"format" validate:"oneof=markdown json"`
}

// SearchStoresInput are the arguments for systembolaget_search_stores.
type SearchStoresInput struct {
	Query  string `mapstructure:"query"`
	City   string `mapstructure:"city"`
	Limit  int    `mapstructure:"limit" validate:"min=1,max=100"`
	Offset int    `mapstructure:"offset" validate:"gte=0"`
	Format string `mapstructure:"format" validate:"oneof=markdown json"`
}

// GetStoreInput are the arguments for systembolaget_get_store.
type GetStoreInput struct {
	StoreID string `mapstructure:"store_id" validate:"required"`
	Format  string `mapstructure:"format" validate:"oneof=markdown json"`
}

// decodeInput fills dst (pre-loaded with defaults) from raw tool arguments
// and validates it. JSON numbers arrive as float64, so decoding is weakly
// typed to land them in int fields.
func decodeInput(args map[string]any, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dst,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	trimStrings(dst)

	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

// trimStrings strips surrounding whitespace from every string field.
func trimStrings(dst any) {
	v := reflect.ValueOf(dst).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.String && f.CanSet() {
			f.SetString(strings.TrimSpace(f.String()))
		}
	}
}

// validationMessage converts validator errors into caller-friendly text.
func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

// checkRange enforces max >= min for a paired range filter.
func checkRange(name string, min, max *float64) error {
	if min != nil && max != nil && *max < *min {
		return fmt.Errorf("max_%s must be greater than or equal to min_%s", name, name)
	}
	return nil
}

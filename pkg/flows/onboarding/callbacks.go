package onboarding

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/maitre-bot/maitre/pkg/registry"
)

// Context keys. Supplier* keys are transient: they accumulate one supplier
// at a time and are cleared by finalize_supplier once consumed.
const (
	KeyCompanyName        = "companyName"
	KeyLegalID            = "legalId"
	KeyRestaurantName     = "restaurantName"
	KeyYearsActive        = "yearsActive"
	KeyContactName        = "contactName"
	KeyContactEmail       = "contactEmail"
	KeyPaymentMethod      = "paymentMethod"
	KeySupplierName       = "supplierName"
	KeySupplierWhatsapp   = "supplierWhatsapp"
	KeySupplierCategories = "supplierCategories"
	KeySupplierReminders  = "supplierReminders"
	KeySupplierProducts   = "supplierProducts"
	KeySuppliersList      = "suppliersList"
)

// Reminder is a supplier's order-reminder schedule.
type Reminder struct {
	Days []string `json:"days" mapstructure:"days"`
	Hour int      `json:"hour" mapstructure:"hour"`
}

// Supplier is one completed supplier entry in the suppliers list.
type Supplier struct {
	Name       string   `json:"name" mapstructure:"name"`
	Whatsapp   string   `json:"whatsapp" mapstructure:"whatsapp"`
	Categories []string `json:"categories" mapstructure:"categories"`
	Reminders  Reminder `json:"reminders" mapstructure:"reminders"`
	Products   []string `json:"products" mapstructure:"products"`
}

// copyField returns a callback storing value[field] under key.
func copyField(field, key string) registry.CallbackFunc {
	return func(convCtx map[string]any, value map[string]any) error {
		v, ok := value[field]
		if !ok {
			return fmt.Errorf("validated value missing field %q", field)
		}
		convCtx[key] = v
		return nil
	}
}

func newCallbacks() *registry.Registry {
	reg := registry.New()

	reg.Register("set_company_name", copyField(KeyCompanyName, KeyCompanyName))
	reg.Register("set_legal_id", copyField(KeyLegalID, KeyLegalID))
	reg.Register("set_restaurant_name", copyField(KeyRestaurantName, KeyRestaurantName))
	reg.Register("set_years_active", copyField(KeyYearsActive, KeyYearsActive))
	reg.Register("set_contact_name", copyField(KeyContactName, KeyContactName))

	// Skipping leaves the email unset; an empty key is never written.
	reg.Register("set_contact_email", func(convCtx map[string]any, value map[string]any) error {
		if email, ok := value[KeyContactEmail]; ok {
			convCtx[KeyContactEmail] = email
		}
		return nil
	})

	reg.Register("set_payment_method", func(convCtx map[string]any, value map[string]any) error {
		token, ok := value["token"]
		if !ok {
			return fmt.Errorf("payment method resolved without an option token")
		}
		convCtx[KeyPaymentMethod] = token
		return nil
	})

	reg.Register("set_supplier_categories", copyField("category", KeySupplierCategories))

	reg.Register("set_supplier_contact", func(convCtx map[string]any, value map[string]any) error {
		name, ok := value["name"]
		if !ok {
			return fmt.Errorf("extracted contact missing name")
		}
		whatsapp, ok := value["whatsapp"]
		if !ok {
			return fmt.Errorf("extracted contact missing whatsapp")
		}
		convCtx[KeySupplierName] = name
		convCtx[KeySupplierWhatsapp] = whatsapp
		return nil
	})

	reg.Register("set_supplier_reminders", func(convCtx map[string]any, value map[string]any) error {
		var reminder Reminder
		if err := mapstructure.WeakDecode(value, &reminder); err != nil {
			return fmt.Errorf("invalid reminder shape: %w", err)
		}
		convCtx[KeySupplierReminders] = reminder
		return nil
	})

	reg.Register("set_supplier_products", copyField("products", KeySupplierProducts))

	// finalize_supplier assembles the transient supplier keys into one
	// Supplier entry, appends it to the list, and clears the transients so
	// the next supplier starts clean. Runs on both "add another" and
	// "finish" paths.
	reg.Register("finalize_supplier", func(convCtx map[string]any, value map[string]any) error {
		supplier, err := supplierFromContext(convCtx)
		if err != nil {
			return err
		}

		// The list may come back from JSON persistence as []any of maps;
		// decode instead of asserting so earlier entries survive.
		var list []Supplier
		if raw, ok := convCtx[KeySuppliersList]; ok {
			if err := mapstructure.WeakDecode(raw, &list); err != nil {
				return fmt.Errorf("corrupt suppliers list in context: %w", err)
			}
		}
		convCtx[KeySuppliersList] = append(list, supplier)

		for _, key := range []string{
			KeySupplierName, KeySupplierWhatsapp, KeySupplierCategories,
			KeySupplierReminders, KeySupplierProducts,
		} {
			delete(convCtx, key)
		}
		return nil
	})

	return reg
}

// supplierFromContext decodes the transient supplier keys into a typed
// Supplier. WeakDecode tolerates []any slices coming back from JSON
// persistence.
func supplierFromContext(convCtx map[string]any) (Supplier, error) {
	var supplier Supplier
	raw := map[string]any{
		"name":       convCtx[KeySupplierName],
		"whatsapp":   convCtx[KeySupplierWhatsapp],
		"categories": convCtx[KeySupplierCategories],
		"reminders":  convCtx[KeySupplierReminders],
		"products":   convCtx[KeySupplierProducts],
	}
	if err := mapstructure.WeakDecode(raw, &supplier); err != nil {
		return supplier, fmt.Errorf("incomplete supplier in context: %w", err)
	}
	if supplier.Name == "" {
		return supplier, fmt.Errorf("incomplete supplier in context: missing name")
	}
	return supplier, nil
}

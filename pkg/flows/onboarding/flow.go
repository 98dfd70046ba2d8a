// Package onboarding defines the restaurant onboarding and supplier setup
// flow: the state table that walks a new restaurant owner from first
// contact through company registration, payment, and supplier
// configuration, entirely over WhatsApp.
package onboarding

import (
	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
	"github.com/maitre-bot/maitre/pkg/registry"
	"github.com/maitre-bot/maitre/pkg/schema"
)

// State IDs. Stable: hosts persist them between turns and the payment
// webhook overrides WaitingForPayment -> SetupStart by ID.
const (
	Init                = "INIT"
	Help                = "HELP"
	CompanyName         = "ONBOARDING_COMPANY_NAME"
	LegalID             = "ONBOARDING_LEGAL_ID"
	RestaurantName      = "ONBOARDING_RESTAURANT_NAME"
	YearsActive         = "ONBOARDING_YEARS_ACTIVE"
	ContactName         = "ONBOARDING_CONTACT_NAME"
	ContactEmail        = "ONBOARDING_CONTACT_EMAIL"
	PaymentMethod       = "ONBOARDING_PAYMENT_METHOD"
	WaitingForPayment   = "WAITING_FOR_PAYMENT"
	SetupStart          = "SETUP_START"
	SupplierCategory    = "SUPPLIER_CATEGORY"
	SupplierContact     = "SUPPLIER_CONTACT"
	SupplierReminders   = "SUPPLIER_REMINDERS"
	SupplierProducts    = "SUPPLIER_PRODUCTS"
	SuppliersAdditional = "SETUP_SUPPLIERS_ADDITIONAL"
	SetupFinished       = "SETUP_FINISHED"
)

// Action tokens emitted for the host.
const (
	ActionCreateRestaurant   = "CREATE_RESTAURANT"
	ActionCreateSupplier     = "CREATE_SUPPLIER"
	ActionCompleteOnboarding = "COMPLETE_ONBOARDING"
)

// Callbacks returns just the callback registry, for hosts that load a
// customized table from files but keep the stock context mutations.
func Callbacks() *registry.Registry {
	return newCallbacks()
}

// New builds the onboarding table and its callback registry, validated and
// ready for an engine.
func New() (*flow.Table, *registry.Registry, error) {
	reg := newCallbacks()

	table, err := flow.New(
		domain.State{
			ID: Init,
			Template: &domain.Template{
				Kind: domain.TemplateButton,
				Body: "Welcome! I'm the setup assistant. I can get your restaurant up and running right here on WhatsApp.",
				Options: []domain.Option{
					{Label: "Open a new restaurant", Token: "new_restaurant"},
					{Label: "Talk to a human", Token: "help"},
				},
			},
			Next: map[domain.Token]string{
				"new_restaurant": CompanyName,
				"help":           Help,
			},
		},
		domain.State{
			ID:     Help,
			Prompt: "No problem. An operator will reach out shortly.",
		},
		domain.State{
			ID:        CompanyName,
			Prompt:    "Great, let's open a new restaurant. What is the company's registered name?",
			Validator: schema.Schema{"companyName": schema.String()},
			Callback:  "set_company_name",
			Next:      map[domain.Token]string{domain.TokenOK: LegalID},
		},
		domain.State{
			ID:                LegalID,
			Prompt:            "What is the legal ID of {companyName}? (9 digits)",
			Validator:         schema.Schema{"legalId": schema.Digits(9)},
			ValidationMessage: "A legal ID is exactly 9 digits. Please check and try again.",
			Callback:          "set_legal_id",
			Next:              map[domain.Token]string{domain.TokenOK: RestaurantName},
		},
		domain.State{
			ID:        RestaurantName,
			Prompt:    "Thanks! What name do your diners know the restaurant by?",
			Validator: schema.Schema{"restaurantName": schema.String()},
			Callback:  "set_restaurant_name",
			Next:      map[domain.Token]string{domain.TokenOK: YearsActive},
		},
		domain.State{
			ID:                YearsActive,
			Prompt:            "How many years has {restaurantName} been active? (0 if you're just opening)",
			Validator:         schema.Schema{"yearsActive": schema.Range(0, 120)},
			ValidationMessage: "Please answer with a number of years, e.g. 3.",
			Callback:          "set_years_active",
			Next:              map[domain.Token]string{domain.TokenOK: ContactName},
		},
		domain.State{
			ID:        ContactName,
			Prompt:    "Who should we contact about the account?",
			Validator: schema.Schema{"contactName": schema.String()},
			Callback:  "set_contact_name",
			Next:      map[domain.Token]string{domain.TokenOK: ContactEmail},
		},
		domain.State{
			ID:     ContactEmail,
			Prompt: "What's {contactName}'s email? (reply 'skip' if you'd rather not)",
			Validator: schema.Schema{"contactEmail": schema.Pattern(
				"email",
				`^[^@\s]+@[^@\s]+\.[^@\s]+$`,
				"expected an email address like name@example.com",
			)},
			Skippable: true,
			Callback:  "set_contact_email",
			Next: map[domain.Token]string{
				domain.TokenOK:   PaymentMethod,
				domain.TokenSkip: PaymentMethod,
			},
		},
		domain.State{
			ID: PaymentMethod,
			Template: &domain.Template{
				Kind: domain.TemplateList,
				Body: "{restaurantName} is registered! Last step before setup: how would you like to pay the subscription?",
				Options: []domain.Option{
					{Label: "Credit card", Token: "credit_card"},
					{Label: "Bank transfer", Token: "bank_transfer"},
				},
			},
			Action:   ActionCreateRestaurant,
			Callback: "set_payment_method",
			Next: map[domain.Token]string{
				"credit_card":   WaitingForPayment,
				"bank_transfer": WaitingForPayment,
			},
		},
		domain.State{
			ID:        WaitingForPayment,
			Prompt:    "We've sent you a payment link. I'll pick things up the moment the payment clears. Nothing else to do here.",
			Validator: schema.Schema{"paymentNote": schema.String()},
			// No Next entries on purpose: replies validate but resolve to
			// a token with no transition, so the conversation holds until
			// the payment webhook overrides it to SETUP_START.
		},
		domain.State{
			ID: SetupStart,
			Template: &domain.Template{
				Kind: domain.TemplateButton,
				Body: "Payment received! Now let's map your suppliers so I can handle your ordering.",
				Options: []domain.Option{
					{Label: "Add your first supplier", Token: "add_supplier"},
				},
			},
			Next: map[domain.Token]string{"add_supplier": SupplierCategory},
		},
		domain.State{
			ID:     SupplierCategory,
			Prompt: "Which categories does this supplier cover? Answer naturally, e.g. \"vegetables and fish\".",
			Extraction: &domain.Extraction{
				Instruction: "The user names one or more supply categories for a restaurant supplier (produce, fish, meat, dairy, dry goods, drinks, etc.), possibly in another language. Map them to lowercase English category names.",
				Schema:      schema.Schema{"category": schema.NonEmptySlice(schema.String())},
			},
			ValidationMessage: "I couldn't work out the categories. Try something like \"vegetables and fish\".",
			Callback:          "set_supplier_categories",
			Next:              map[domain.Token]string{domain.TokenAIValid: SupplierContact},
		},
		domain.State{
			ID:     SupplierContact,
			Prompt: "Who is your {supplierCategories} supplier? Send their name and WhatsApp number.",
			Extraction: &domain.Extraction{
				Instruction: "Extract the supplier's display name and their WhatsApp phone number in international format.",
				Schema: schema.Schema{
					"name":     schema.String(),
					"whatsapp": schema.Phone(),
				},
			},
			ValidationMessage: "I need both a name and a phone number, e.g. \"Green Farm, +972501234567\".",
			Callback:          "set_supplier_contact",
			Next:              map[domain.Token]string{domain.TokenAIValid: SupplierReminders},
		},
		domain.State{
			ID:     SupplierReminders,
			Prompt: "When should I remind you to order from {supplierName}? Days plus an hour, e.g. \"Sunday and Wednesday at 14\".",
			Extraction: &domain.Extraction{
				Instruction: "Extract the weekdays (lowercase English day names) and the hour of day (0-23) for order reminders.",
				Schema: schema.Schema{
					"days": schema.NonEmptySlice(schema.String()),
					"hour": schema.HourRange(),
				},
			},
			ValidationMessage: "Tell me which days and what hour, e.g. \"Sunday and Wednesday at 14\".",
			Callback:          "set_supplier_reminders",
			Next:              map[domain.Token]string{domain.TokenAIValid: SupplierProducts},
		},
		domain.State{
			ID:     SupplierProducts,
			Prompt: "Which products do you order from {supplierName}?",
			Extraction: &domain.Extraction{
				Instruction: "Extract the list of product names the user orders from this supplier.",
				Schema:      schema.Schema{"products": schema.NonEmptySlice(schema.String())},
			},
			ValidationMessage: "List a few products, e.g. \"tomatoes, cucumbers, onions\".",
			Callback:          "set_supplier_products",
			Next:              map[domain.Token]string{domain.TokenAIValid: SuppliersAdditional},
		},
		domain.State{
			ID: SuppliersAdditional,
			Template: &domain.Template{
				Kind: domain.TemplateButton,
				Body: "{supplierName} is set up. Add another supplier?",
				Options: []domain.Option{
					{Label: "Add another supplier", Token: "add_supplier"},
					{Label: "That's everything", Token: "finish_setup"},
				},
			},
			Action:   ActionCreateSupplier,
			Callback: "finalize_supplier",
			Next: map[domain.Token]string{
				"add_supplier": SupplierCategory,
				"finish_setup": SetupFinished,
			},
		},
		domain.State{
			ID:     SetupFinished,
			Prompt: "You're all set, {restaurantName}! I'll send your first order reminders on schedule. Write to me any time.",
			Action: ActionCompleteOnboarding,
		},
	)
	if err != nil {
		return nil, nil, err
	}

	if err := table.Validate(reg); err != nil {
		return nil, nil, err
	}
	return table, reg, nil
}

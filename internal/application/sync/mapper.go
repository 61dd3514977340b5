package syncapp

import (
	"strings"

	"github.com/fieldcrm/backend/internal/domain/catalog"
	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// ErrMandatoryFieldsMissing rejects records that lack an external code or a
// name after mapping; such records never reach the catalog store.
var ErrMandatoryFieldsMissing = shared.NewDomainError("MANDATORY_FIELDS_MISSING",
	"Record is missing external_code or name")

// fieldTypes declares the normalization type per internal field name.
// Fields absent from this table normalize as strings.
var fieldTypes = map[string]FieldType{
	"price":            FieldTypeDecimal,
	"quantity":         FieldTypeDecimal,
	"weight":           FieldTypeDecimal,
	"discount_percent": FieldTypeDecimal,
	"credit_limit":     FieldTypeDecimal,
	"warranty_months":  FieldTypeInteger,
	"payment_due_days": FieldTypeInteger,
	"is_service":       FieldTypeBoolean,
	"is_company":       FieldTypeBoolean,
	"release_date":     FieldTypeDate,
	"registered_at":    FieldTypeDate,
	"attributes":       FieldTypeJSON,
}

// nomenklaturaAliases maps external attribute spellings to internal field
// names. Many-to-one: the remote system mixes English, Russian and legacy
// casings depending on configuration version.
var nomenklaturaAliases = map[string]string{
	"Code":              "external_code",
	"code":              "external_code",
	"Код":               "external_code",
	"Name":              "name",
	"name":              "name",
	"Наименование":      "name",
	"Article":           "article",
	"Артикул":           "article",
	"Description":       "description",
	"Описание":          "description",
	"Unit":              "unit",
	"ЕдиницаИзмерения":  "unit",
	"БазоваяЕдиница":    "unit",
	"Manufacturer":      "manufacturer",
	"Производитель":     "manufacturer",
	"Barcode":           "barcode",
	"ШтрихКод":          "barcode",
	"Price":             "price",
	"Цена":              "price",
	"Quantity":          "quantity",
	"Количество":        "quantity",
	"Остаток":           "quantity",
	"Weight":            "weight",
	"Вес":               "weight",
	"WarrantyMonths":    "warranty_months",
	"ГарантияМесяцев":   "warranty_months",
	"IsService":         "is_service",
	"Услуга":            "is_service",
	"ReleaseDate":       "release_date",
	"ДатаВыпуска":       "release_date",
	"Attributes":        "attributes",
	"Свойства":          "attributes",
}

var clientAliases = map[string]string{
	"Code":                "external_code",
	"code":                "external_code",
	"Код":                 "external_code",
	"Name":                "name",
	"name":                "name",
	"Наименование":        "name",
	"FullName":            "full_name",
	"ПолноеНаименование":  "full_name",
	"INN":                 "inn",
	"Inn":                 "inn",
	"ИНН":                 "inn",
	"KPP":                 "kpp",
	"КПП":                 "kpp",
	"Phone":               "phone",
	"Телефон":             "phone",
	"Email":               "email",
	"EMail":               "email",
	"ЭлектроннаяПочта":    "email",
	"Address":             "address",
	"Адрес":               "address",
	"ЮридическийАдрес":    "address",
	"ContactPerson":       "contact_person",
	"КонтактноеЛицо":      "contact_person",
	"IsCompany":           "is_company",
	"ЮридическоеЛицо":     "is_company",
	"DiscountPercent":     "discount_percent",
	"ПроцентСкидки":       "discount_percent",
	"CreditLimit":         "credit_limit",
	"ЛимитКредита":        "credit_limit",
	"PaymentDueDays":      "payment_due_days",
	"ОтсрочкаПлатежа":     "payment_due_days",
	"RegisteredAt":        "registered_at",
	"ДатаРегистрации":     "registered_at",
	"Attributes":          "attributes",
	"Свойства":            "attributes",
}

// MapRecord maps one external record onto internal field names with
// normalized values. It is a pure function: per-attribute normalization
// failures drop only that attribute, never the rest of the record.
//
// Attributes not covered by the alias table fall back to a derived
// candidate name (lowercased, spaces to underscores); the value is kept
// only when the target schema declares a field of that name. This covers
// fields added to the remote configuration without a code change here.
func MapRecord(rec integration.ExternalRecord, kind integration.SyncKind) (map[string]any, error) {
	aliases, hasField, err := schemaFor(kind)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	for _, attr := range rec.Attributes() {
		internal, aliased := aliases[attr.Name]
		if !aliased {
			internal = deriveFieldName(attr.Name)
			if !hasField(internal) {
				continue
			}
		}
		if value := Normalize(attr.Value, typeOf(internal)); value != nil {
			fields[internal] = value
		}
	}

	if !hasMandatoryFields(fields) {
		return nil, ErrMandatoryFieldsMissing
	}
	return fields, nil
}

func schemaFor(kind integration.SyncKind) (map[string]string, func(string) bool, error) {
	switch kind {
	case integration.SyncKindNomenklatura:
		return nomenklaturaAliases, catalog.NomenklaturaHasField, nil
	case integration.SyncKindClients:
		return clientAliases, catalog.ClientHasField, nil
	default:
		return nil, nil, shared.NewDomainError("INVALID_SYNC_KIND", "Unknown sync kind: "+string(kind))
	}
}

func typeOf(internal string) FieldType {
	if ft, ok := fieldTypes[internal]; ok {
		return ft
	}
	return FieldTypeString
}

// deriveFieldName lowercases and underscores an external attribute name
func deriveFieldName(external string) string {
	return strings.ReplaceAll(strings.ToLower(external), " ", "_")
}

func hasMandatoryFields(fields map[string]any) bool {
	code, ok := fields["external_code"].(string)
	if !ok || strings.TrimSpace(code) == "" {
		return false
	}
	name, ok := fields["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return false
	}
	return true
}

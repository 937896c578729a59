// Package schema is the process-wide, read-only registry of knowledge
// record types (C1). It enumerates the fifteen record kinds, their
// required and primary-key fields, and the department-to-doc-type
// permission matrix.
package schema

import (
	"fmt"
	"strings"
)

// Department is one of the five closed department values a document and
// its extracted records belong to.
type Department string

const (
	DepartmentSales     Department = "sales"
	DepartmentSupport   Department = "support"
	DepartmentMarketing Department = "marketing"
	DepartmentProduct   Department = "product"
	DepartmentLegal     Department = "legal"
)

// DocType is one of the fifteen closed record kinds.
type DocType string

const (
	DocTypeTrainingModule       DocType = "training_module"
	DocTypeObjection            DocType = "objection"
	DocTypePersona              DocType = "persona"
	DocTypePitchScript          DocType = "pitch_script"
	DocTypeEmailTemplate        DocType = "email_template"
	DocTypeFAQ                  DocType = "faq"
	DocTypeTroubleshootingGuide DocType = "troubleshooting_guide"
	DocTypeHowToSteps           DocType = "how_to_steps"
	DocTypeProductSpec          DocType = "product_spec"
	DocTypeCompatibilityMatrix  DocType = "compatibility_matrix"
	DocTypeSafetyNotes          DocType = "safety_notes"
	DocTypeMessagingPillars     DocType = "messaging_pillars"
	DocTypeContentGuidelines    DocType = "content_guidelines"
	DocTypeComplianceNotes      DocType = "compliance_notes"
	DocTypeClaimsDoDont         DocType = "claims_do_dont"
)

// Confidentiality marks whether a document may be shown outside the
// organization. Only two values exist.
type Confidentiality string

const (
	ConfidentialityInternal Confidentiality = "internal"
	ConfidentialityPublic   Confidentiality = "public"
)

// FieldKind is the declared shape of a schema field, used by the rule-based
// extractor to coerce a captured string into the right Go value.
type FieldKind string

const (
	FieldString FieldKind = "string"
	FieldInt    FieldKind = "int"
	FieldFloat  FieldKind = "float"
	FieldList   FieldKind = "list"
	FieldMap    FieldKind = "map"
)

// Field describes one declared field of a record schema.
type Field struct {
	Name        string
	Kind        FieldKind
	Required    bool
	Description string
}

// Descriptor is the per-doc_type metadata table entry: the record class
// name, its department, its fields, and the derived required/primary-key
// field lists.
type Descriptor struct {
	Name             string
	DocType          DocType
	Department       Department
	Fields           []Field
	PrimaryKeyFields []string
}

// RequiredFields returns the ordered list of required field names.
func (d *Descriptor) RequiredFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// FieldByName returns the field descriptor for name, if declared.
func (d *Descriptor) FieldByName(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ComputePrimaryKey derives a stable lookup key for data from the
// descriptor's PrimaryKeyFields: each field value is lowercased, trimmed,
// and clipped to 100 characters (non-strings are clipped after their
// default string conversion), the parts are joined with "|", and the
// result is clipped to 500 characters total.
func (d *Descriptor) ComputePrimaryKey(data map[string]any) string {
	parts := make([]string, 0, len(d.PrimaryKeyFields))
	for _, field := range d.PrimaryKeyFields {
		parts = append(parts, clip(fieldKeyPart(data[field]), 100))
	}
	key := strings.Join(parts, "|")
	return clip(key, 500)
}

func fieldKeyPart(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

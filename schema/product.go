package schema

var productDescriptors = []*Descriptor{
	{
		Name:             "ProductSpec",
		DocType:          DocTypeProductSpec,
		Department:       DepartmentProduct,
		PrimaryKeyFields: []string{"artnr"},
		Fields: []Field{
			{Name: "artnr", Kind: FieldString, Required: true, Description: "Artikelnummer"},
			{Name: "name", Kind: FieldString, Required: true, Description: "Produktname"},
			{Name: "description", Kind: FieldString, Description: "Produktbeschreibung"},
			{Name: "specs", Kind: FieldMap, Description: "Technische Spezifikationen"},
			{Name: "compatibility", Kind: FieldList, Description: "Kompatible Produkte/Systeme"},
		},
	},
	{
		Name:             "CompatibilityMatrix",
		DocType:          DocTypeCompatibilityMatrix,
		Department:       DepartmentProduct,
		PrimaryKeyFields: []string{"product_id"},
		Fields: []Field{
			{Name: "product_id", Kind: FieldString, Required: true, Description: "Produkt-ID oder Artikelnummer"},
			{Name: "compatible_with", Kind: FieldList, Description: "Kompatible Produkte"},
			{Name: "incompatible_with", Kind: FieldList, Description: "Inkompatible Produkte"},
			{Name: "notes", Kind: FieldString, Description: "Zusätzliche Hinweise"},
		},
	},
	{
		Name:             "SafetyNotes",
		DocType:          DocTypeSafetyNotes,
		Department:       DepartmentProduct,
		PrimaryKeyFields: []string{"product_id"},
		Fields: []Field{
			{Name: "product_id", Kind: FieldString, Required: true, Description: "Produkt-ID oder Artikelnummer"},
			{Name: "warnings", Kind: FieldList, Required: true, Description: "Sicherheitswarnungen"},
			{Name: "certifications", Kind: FieldList, Description: "Zertifizierungen"},
			{Name: "handling_instructions", Kind: FieldString, Description: "Handhabungshinweise"},
		},
	},
}

package schema

var legalDescriptors = []*Descriptor{
	{
		Name:             "ComplianceNotes",
		DocType:          DocTypeComplianceNotes,
		Department:       DepartmentLegal,
		PrimaryKeyFields: []string{"topic", "region"},
		Fields: []Field{
			{Name: "topic", Kind: FieldString, Required: true, Description: "Compliance-Thema"},
			{Name: "requirements", Kind: FieldList, Required: true, Description: "Anforderungen"},
			{Name: "effective_date", Kind: FieldString, Description: "Gültigkeitsdatum"},
			{Name: "region", Kind: FieldString, Description: "Region/Land"},
		},
	},
	{
		Name:             "ClaimsDoDont",
		DocType:          DocTypeClaimsDoDont,
		Department:       DepartmentLegal,
		PrimaryKeyFields: []string{"claim_type"},
		Fields: []Field{
			{Name: "claim_type", Kind: FieldString, Required: true, Description: "Art der Werbeaussage"},
			{Name: "allowed", Kind: FieldList, Required: true, Description: "Erlaubte Aussagen"},
			{Name: "prohibited", Kind: FieldList, Required: true, Description: "Verbotene Aussagen"},
			{Name: "examples", Kind: FieldList, Description: "Beispiele"},
		},
	},
}

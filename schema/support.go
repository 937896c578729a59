package schema

var supportDescriptors = []*Descriptor{
	{
		Name:             "FAQ",
		DocType:          DocTypeFAQ,
		Department:       DepartmentSupport,
		PrimaryKeyFields: []string{"question"},
		Fields: []Field{
			{Name: "question", Kind: FieldString, Required: true, Description: "Die häufig gestellte Frage"},
			{Name: "answer", Kind: FieldString, Required: true, Description: "Die Antwort"},
			{Name: "category", Kind: FieldString, Description: "Kategorie"},
			{Name: "related_products", Kind: FieldList, Description: "Betroffene Produkte"},
		},
	},
	{
		Name:             "TroubleshootingGuide",
		DocType:          DocTypeTroubleshootingGuide,
		Department:       DepartmentSupport,
		PrimaryKeyFields: []string{"title"},
		Fields: []Field{
			{Name: "title", Kind: FieldString, Required: true, Description: "Titel des Guides"},
			{Name: "problem", Kind: FieldString, Required: true, Description: "Problembeschreibung"},
			{Name: "steps", Kind: FieldList, Description: "Fehlerbehebungsschritte"},
			{Name: "solution", Kind: FieldString, Required: true, Description: "Lösung/Ergebnis"},
		},
	},
	{
		Name:             "HowToSteps",
		DocType:          DocTypeHowToSteps,
		Department:       DepartmentSupport,
		PrimaryKeyFields: []string{"title"},
		Fields: []Field{
			{Name: "title", Kind: FieldString, Required: true, Description: "Titel der Anleitung"},
			{Name: "steps", Kind: FieldList, Required: true, Description: "Anleitungsschritte"},
		},
	},
}

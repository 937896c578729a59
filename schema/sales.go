package schema

var salesDescriptors = []*Descriptor{
	{
		Name:             "TrainingModule",
		DocType:          DocTypeTrainingModule,
		Department:       DepartmentSales,
		PrimaryKeyFields: []string{"title", "version"},
		Fields: []Field{
			{Name: "title", Kind: FieldString, Required: true, Description: "Titel des Trainingsmoduls"},
			{Name: "version", Kind: FieldString, Required: true, Description: "Versionsnummer (z.B. '1.0', '2.1')"},
			{Name: "content", Kind: FieldString, Required: true, Description: "Hauptinhalt des Trainings"},
			{Name: "objectives", Kind: FieldList, Description: "Lernziele"},
			{Name: "target_audience", Kind: FieldString, Description: "Zielgruppe"},
		},
	},
	{
		Name:             "Objection",
		DocType:          DocTypeObjection,
		Department:       DepartmentSales,
		PrimaryKeyFields: []string{"id"},
		Fields: []Field{
			{Name: "id", Kind: FieldString, Required: true, Description: "Eindeutige ID des Einwands"},
			{Name: "objection_text", Kind: FieldString, Required: true, Description: "Der Kundeneinwand"},
			{Name: "response", Kind: FieldString, Required: true, Description: "Empfohlene Antwort"},
			{Name: "category", Kind: FieldString, Description: "Kategorie (z.B. 'Preis', 'Zeit')"},
			{Name: "effectiveness_score", Kind: FieldFloat, Description: "Wirksamkeitsbewertung 0-10"},
		},
	},
	{
		Name:             "Persona",
		DocType:          DocTypePersona,
		Department:       DepartmentSales,
		PrimaryKeyFields: []string{"name"},
		Fields: []Field{
			{Name: "name", Kind: FieldString, Required: true, Description: "Name der Persona"},
			{Name: "role", Kind: FieldString, Required: true, Description: "Rolle/Position"},
			{Name: "pain_points", Kind: FieldList, Description: "Schmerzpunkte"},
			{Name: "goals", Kind: FieldList, Description: "Ziele"},
			{Name: "triggers", Kind: FieldList, Description: "Kaufauslöser"},
		},
	},
	{
		Name:             "PitchScript",
		DocType:          DocTypePitchScript,
		Department:       DepartmentSales,
		PrimaryKeyFields: []string{"title", "scenario"},
		Fields: []Field{
			{Name: "title", Kind: FieldString, Required: true, Description: "Titel des Pitch-Scripts"},
			{Name: "scenario", Kind: FieldString, Required: true, Description: "Anwendungsszenario"},
			{Name: "script_text", Kind: FieldString, Required: true, Description: "Der Pitch-Text"},
			{Name: "key_points", Kind: FieldList, Description: "Kernbotschaften"},
		},
	},
	{
		Name:             "EmailTemplate",
		DocType:          DocTypeEmailTemplate,
		Department:       DepartmentSales,
		PrimaryKeyFields: []string{"name"},
		Fields: []Field{
			{Name: "name", Kind: FieldString, Required: true, Description: "Name des Templates"},
			{Name: "subject", Kind: FieldString, Required: true, Description: "Betreffzeile"},
			{Name: "body", Kind: FieldString, Required: true, Description: "E-Mail-Text"},
			{Name: "use_case", Kind: FieldString, Description: "Anwendungsfall"},
			{Name: "variables", Kind: FieldList, Description: "Platzhalter-Variablen"},
		},
	},
}

package schema

var marketingDescriptors = []*Descriptor{
	{
		Name:             "MessagingPillars",
		DocType:          DocTypeMessagingPillars,
		Department:       DepartmentMarketing,
		PrimaryKeyFields: []string{"pillar_name"},
		Fields: []Field{
			{Name: "pillar_name", Kind: FieldString, Required: true, Description: "Name des Messaging-Pfeilers"},
			{Name: "key_messages", Kind: FieldList, Required: true, Description: "Kernbotschaften"},
			{Name: "tone", Kind: FieldString, Description: "Tonalität"},
			{Name: "audience", Kind: FieldString, Description: "Zielgruppe"},
		},
	},
	{
		Name:             "ContentGuidelines",
		DocType:          DocTypeContentGuidelines,
		Department:       DepartmentMarketing,
		PrimaryKeyFields: []string{"topic"},
		Fields: []Field{
			{Name: "topic", Kind: FieldString, Required: true, Description: "Thema/Bereich"},
			{Name: "dos", Kind: FieldList, Required: true, Description: "Was man tun sollte"},
			{Name: "donts", Kind: FieldList, Required: true, Description: "Was man vermeiden sollte"},
			{Name: "examples", Kind: FieldList, Description: "Beispiele"},
		},
	},
}

// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package catalog

// builtinControls is the evidence-search table shipped with the tool
var builtinControls = []Control{
	{
		Name:           "Group Accounts",
		TopicTerms:     []string{"access control", "account management", "User matrix", "roles and responsibilities"},
		DetailTerms:    []string{"group account"},
		Prompt:         "Are group accounts used?",
		ReferenceCodes: Codes{"CCI-002129", "CCI-002140", "CCI-002141", "CCI-002142"},
	},
	{
		Name:           "Temporary Accounts",
		TopicTerms:     []string{"roles and responsibilities", "access control", "account management", "User matrix"},
		DetailTerms:    []string{"temporary account"},
		Prompt:         "Are temporary accounts used?",
		ReferenceCodes: Codes{"CCI-000016", "CCI-001361"},
	},
	{
		Name:           "Contingency Training",
		TopicTerms:     []string{"contingency plan", "emergency policy", "contingency", "training plan"},
		DetailTerms:    []string{"contingency training", "training", "exercise"},
		Prompt:         "Is there contingency training?",
		ReferenceCodes: Codes{"CCI-000486", "CCI-000485", "CCI-000487", "CCI-000488"},
	},
}

// Default returns a catalog holding only the built-in controls.
func Default() *Catalog {
	c, err := New(builtinControls)
	if err != nil {
		panic("invalid built-in catalog: " + err.Error())
	}
	return c
}

package coverletters

import "testing"

func TestParseMetadata(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  Metadata
	}{
		{"both labels", "Company: Acme\nJob Title: Engineer", Metadata{CompanyName: "Acme", JobTitle: "Engineer"}},
		{"no labels", "I could not find anything useful.", Metadata{}},
		{"empty", "", Metadata{}},
		{"last company wins", "Company: First Co\nJob Title: Engineer\nCompany: Second Co", Metadata{CompanyName: "Second Co", JobTitle: "Engineer"}},
		{"order independent", "Job Title: Analyst\nCompany: Initech", Metadata{CompanyName: "Initech", JobTitle: "Analyst"}},
		{"trims whitespace and CR", "Company:   Acme Corp  \r\nJob Title:\tStaff Engineer\r\n", Metadata{CompanyName: "Acme Corp", JobTitle: "Staff Engineer"}},
		{"case sensitive", "company: acme\nJOB TITLE: engineer", Metadata{}},
		{"prefix only", "The Company: Acme\n  Job Title: Engineer", Metadata{}},
		{"label repeated on line", "Company: Company: Acme", Metadata{CompanyName: "Company: Acme"}},
		{"empty value", "Company:\nJob Title: Engineer", Metadata{JobTitle: "Engineer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseMetadata(tc.reply); got != tc.want {
				t.Fatalf("ParseMetadata(%q) = %+v, want %+v", tc.reply, got, tc.want)
			}
		})
	}
}

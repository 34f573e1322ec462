// Package e2e runs the whole stack over HTTP against a generated corpus of policy documents.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// E2EDocument is one corpus file.
type E2EDocument struct {
	Name    string
	Content string
}

// QueryTestCase is a question whose answer lives in one document.
type QueryTestCase struct {
	Query       string
	ExpectedDoc string
	AnsContains string
}

// Corpus holds documents and the questions asked about them.
type Corpus struct {
	Documents []E2EDocument
	TestCases []QueryTestCase
}

var topics = []struct {
	name   string
	phrase string
	body   string
}{
	{"maternity", "maternity delivery newborn", "Maternity delivery newborn expenses are covered after a waiting period of nine months."},
	{"dental", "dental orthodontic braces", "Dental orthodontic braces are excluded unless caused by an accident."},
	{"ambulance", "ambulance transport emergency", "Ambulance transport emergency charges are reimbursed up to two thousand rupees per trip."},
	{"ayush", "ayurveda homeopathy unani", "Ayurveda homeopathy unani treatments are covered at government approved hospitals."},
	{"cataract", "cataract lens surgery", "Cataract lens surgery is limited to forty thousand rupees per eye."},
	{"daycare", "daycare chemotherapy dialysis", "Daycare chemotherapy dialysis procedures need no overnight stay."},
	{"organ", "organ donor harvesting", "Organ donor harvesting costs are paid when the insured is the recipient."},
	{"bariatric", "bariatric obesity surgery", "Bariatric obesity surgery requires a body mass index above forty."},
	{"psychiatric", "psychiatric mental illness", "Psychiatric mental illness hospitalisation is covered like any physical illness."},
	{"vaccination", "vaccination rabies tetanus", "Vaccination rabies tetanus shots after an animal bite are reimbursed."},
	{"portability", "portability migration insurer", "Portability migration insurer requests must reach us forty five days before renewal."},
	{"grace", "grace renewal lapse", "Grace renewal lapse rules give thirty days to pay the premium without losing continuity."},
	{"freelook", "freelook cancellation refund", "Freelook cancellation refund is available within fifteen days of receiving the policy."},
	{"copay", "copayment senior citizen", "Copayment senior citizen clause makes members above sixty pay twenty percent of each claim."},
	{"cashless", "cashless network hospital", "Cashless network hospital admissions need pre authorisation from the third party administrator."},
	{"reimbursement", "reimbursement original bills", "Reimbursement original bills and discharge summary must be couriered within thirty days."},
	{"domiciliary", "domiciliary home treatment", "Domiciliary home treatment is covered when hospital beds are unavailable for three days."},
	{"restoration", "restoration recharge benefit", "Restoration recharge benefit refills the sum insured once per year after exhaustion."},
	{"bonus", "cumulative bonus claimfree", "Cumulative bonus claimfree years add ten percent of the sum insured up to fifty percent."},
	{"checkup", "preventive health checkup", "Preventive health checkup vouchers are issued every two claimfree years."},
	{"robotic", "robotic laparoscopic procedures", "Robotic laparoscopic procedures are capped at half the sum insured."},
	{"hiv", "hiv aids antiretroviral", "Hiv aids antiretroviral inpatient care is covered under the regulator mandate."},
	{"abroad", "overseas treatment abroad", "Overseas treatment abroad is excluded except for planned critical illness care."},
	{"nominee", "nominee change endorsement", "Nominee change endorsement requests are processed free of charge."},
}

// BuildCorpus returns one document per topic and one question per document.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for _, t := range topics {
		name := fmt.Sprintf("policy_%s.txt", t.name)
		c.Documents = append(c.Documents, E2EDocument{Name: name, Content: t.body})
		c.TestCases = append(c.TestCases, QueryTestCase{
			Query:       "what does the policy say about " + t.phrase + "?",
			ExpectedDoc: name,
			AnsContains: t.phrase,
		})
	}
	return c
}

// WriteTo writes every document into dir.
func (c *Corpus) WriteTo(dir string) error {
	for _, d := range c.Documents {
		if err := os.WriteFile(filepath.Join(dir, d.Name), []byte(d.Content), 0600); err != nil {
			return err
		}
	}
	return nil
}

func containsPhrase(d E2EDocument, phrase string) bool {
	return strings.Contains(strings.ToLower(d.Content), strings.ToLower(phrase))
}

package gs1

import "testing"

func TestValidateGTIN(t *testing.T) {
	valid := []string{
		"09506000134352", // GTIN-14
		"4006381333931",  // GTIN-13
		"036000291452",   // GTIN-12
		"96385074",       // GTIN-8
	}
	for _, g := range valid {
		if err := ValidateGTIN(g); err != nil {
			t.Fatalf("ValidateGTIN(%s): %v", g, err)
		}
	}
	invalid := []string{
		"",
		"1234",
		"4006381333932",  // bad check digit
		"40063813339a1",  // non-digit
		"123456789012345", // too long
	}
	for _, g := range invalid {
		if err := ValidateGTIN(g); err == nil {
			t.Fatalf("ValidateGTIN(%s): expected error", g)
		}
	}
}

func TestDigitalLink(t *testing.T) {
	link, err := DigitalLink("4006381333931", "")
	if err != nil {
		t.Fatalf("DigitalLink: %v", err)
	}
	want := "https://id.gs1.org/01/04006381333931"
	if link != want {
		t.Fatalf("DigitalLink: want=%s got=%s", want, link)
	}
}

func TestDigitalLinkWithSerial(t *testing.T) {
	link, err := DigitalLink("09506000134352", "SER 01")
	if err != nil {
		t.Fatalf("DigitalLink: %v", err)
	}
	want := "https://id.gs1.org/01/09506000134352/21/SER%2001"
	if link != want {
		t.Fatalf("DigitalLink: want=%s got=%s", want, link)
	}
}

func TestDigitalLinkRejectsBadGTIN(t *testing.T) {
	if _, err := DigitalLink("867", ""); err == nil {
		t.Fatalf("expected error for malformed gtin")
	}
}

package attachments

var categoryLabels = map[string]string{
	"id_doc":              "Identity document",
	"identity":            "Identity document",
	"passport":            "Passport",
	"deposit_receipt":     "Deposit receipt",
	"income_proof":        "Proof of income",
	"bank_statement":      "Bank statement",
	"employment_letter":   "Employment letter",
	"guarantor_id":        "Guarantor identity document",
	"commercial_register": "Commercial register extract",
	"tax_certificate":     "Tax certificate",
	"previous_lease":      "Previous lease agreement",
}

// Label returns the display label for a category key, or the key itself when unknown.
func Label(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return category
}

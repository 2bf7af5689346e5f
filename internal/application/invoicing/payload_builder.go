package invoicing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gestionale/backend/internal/domain/billing"
)

// dateLayout is the date format the provider expects
const dateLayout = "2006-01-02"

// itemUnitOfMeasure is the unit of measure reported on every line item
const itemUnitOfMeasure = "pz"

var oneHundred = decimal.NewFromInt(100)

// BuildInvoicePayload maps a contract and its customer to the provider's
// invoice document schema. Pure transformation: no I/O, inputs are assumed
// pre-validated by the caller.
//
// Net amount is always the contract's stored cost; VAT is computed at the
// configured rate and rounded to 2 decimals. The line item carries the full
// net and gross amounts with the billed quantity as informational detail.
func BuildInvoicePayload(contract *billing.Contract, customer *billing.Customer, cfg *billing.IntegrationConfig) *billing.InvoicePayload {
	rate := cfg.VATRate()
	net := contract.Cost
	vat := net.Mul(rate).Div(oneHundred).Round(2)
	gross := net.Add(vat)

	docType := cfg.DocumentType
	if docType == "" {
		docType = billing.DocumentTypeInvoice
	}

	dueDate := contract.DueDate()

	return &billing.InvoicePayload{
		DocumentType: docType,
		Subject:      contract.ServiceName,
		NetAmount:    net,
		VATAmount:    vat,
		Entity: billing.InvoiceEntity{
			Name:           customer.BillingName(),
			VATNumber:      customer.VATNumber,
			TaxCode:        customer.TaxCode(),
			Address:        customer.Address,
			City:           customer.City,
			Province:       customer.Province,
			PostalCode:     customer.PostalCode,
			Country:        customer.BillingCountry(),
			CertifiedEmail: customer.CertifiedEmail,
			SDICode:        customer.SDICode,
		},
		IssueDate:   contract.StartDate.Format(dateLayout),
		NextDueDate: dueDate.Format(dateLayout),
		Items: []billing.InvoiceItem{
			{
				Code:          contract.ServiceType.ItemCode(),
				Description:   itemDescription(contract),
				UnitOfMeasure: itemUnitOfMeasure,
				NetPrice:      net,
				GrossPrice:    gross,
				Quantity:      contract.BilledQuantity(),
				VAT: billing.InvoiceItemVAT{
					Rate:   rate,
					Amount: vat,
				},
			},
		},
		Payments: []billing.InvoicePayment{
			{
				Amount:    gross,
				DueDate:   dueDate.Format(dateLayout),
				TermsDays: contract.PaymentTerms.Days(),
				Status:    "not_paid",
			},
		},
	}
}

// itemDescription builds the line-item description from the contract
func itemDescription(contract *billing.Contract) string {
	if contract.EndDate != nil {
		return fmt.Sprintf("%s (%s - %s)",
			contract.ServiceName,
			contract.StartDate.Format(dateLayout),
			contract.EndDate.Format(dateLayout),
		)
	}
	return fmt.Sprintf("%s (dal %s)", contract.ServiceName, contract.StartDate.Format(dateLayout))
}

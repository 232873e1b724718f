// Package accounts implements subscription.AccountStore on MongoDB and
// Google Cloud Firestore.
//
// Both stores keep one document per user keyed by the user id, using the
// field names of the existing "usuarios" collection. Payment history appends
// are conditional on the transaction id being absent, which keeps concurrent
// redeliveries from duplicating entries.
package accounts

// DefaultCollection is the collection holding account documents.
const DefaultCollection = "usuarios"

const (
	fieldEmail          = "email"
	fieldStatus         = "statusAssinatura"
	fieldPlan           = "plano"
	fieldProvider       = "provedor"
	fieldProviderSubID  = "assinaturaProvedorId"
	fieldStartedAt      = "dataInicioAssinatura"
	fieldLastUpdatedAt  = "ultimaAtualizacao"
	fieldExpiresAt      = "expiraEm"
	fieldCancelledAt    = "dataCancelamento"
	fieldPaymentHistory = "historicoPagamentos"
)

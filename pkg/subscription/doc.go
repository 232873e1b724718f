// Package subscription reconciles each user's subscription state from
// normalized payment and administrative events.
//
// Provider adapters and the admin API build an Event; a Reconciler resolves
// the target Account (by id, else by a unique email), runs the status
// transition table and appends an entry to the account's payment history:
//
//	r := subscription.NewReconciler(store,
//	    subscription.WithAuditor(auditLog),
//	    subscription.WithTrialDays(cfg.TrialDays),
//	)
//	res, err := r.Reconcile(ctx, subscription.Event{
//	    Kind:          subscription.EventPurchaseApproved,
//	    Provider:      subscription.ProviderHotmart,
//	    Email:         "a@b.com",
//	    ProductName:   "Plano Premium Anual",
//	    TransactionID: "HP123",
//	})
//
// The transition table does not depend on the current status: the latest
// delivered event wins. History appends are keyed by transaction id, so a
// redelivered event never adds a second entry (Result.Duplicate reports it).
//
// Status and plan values are persisted in the application's Portuguese
// vocabulary ("ativa", "cancelada", "basico").
package subscription

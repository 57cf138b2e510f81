// Package registration ties the registration schema, validator, summary card
// and PNG export together. The service is stateless: everything needed to
// export a card travels with the request.
package registration

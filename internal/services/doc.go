// Package services defines the error taxonomy shared by the external
// service clients and the generation session.
package services

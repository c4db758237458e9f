package domain

// DefaultInstitution is the issuing institution printed on the certificate
// image and in the metadata attributes.
const DefaultInstitution = "Universitas Yudharta Pasuruan"

// CertificateFact holds the facts printed on a certificate.
// Created per request and never persisted; only derived artifacts are stored.
type CertificateFact struct {
	Name     string // recipient name
	Activity string // activity or event label
	Date     string // issuance date as printed
	ID       string // unique certificate identifier
}

// IssuedCertificate is the caller-facing result of one issuance run.
type IssuedCertificate struct {
	CertificateID string
	ImageURI      ContentLocator
	MetadataURI   ContentLocator
	Mint          *MintResult
}

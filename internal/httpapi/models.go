package httpapi

import (
	"solana-cert-mint/internal/domain"
	"solana-cert-mint/internal/orchestrator"
)

// IssueRequest is the POST /certificates body.
type IssueRequest struct {
	Name            string `json:"name"`
	Activity        string `json:"activity"`
	Date            string `json:"date"`
	RecipientWallet string `json:"recipientWallet"`
	CertificateID   string `json:"certificateId,omitempty"`
}

func (r IssueRequest) toRequest() orchestrator.Request {
	return orchestrator.Request{
		Fact: domain.CertificateFact{
			Name:     r.Name,
			Activity: r.Activity,
			Date:     r.Date,
			ID:       r.CertificateID,
		},
		RecipientAddress: r.RecipientWallet,
	}
}

// MintRequest is the POST /mint body. The certificate fields name the token
// and key its record; metadataUri must be content-addressed.
type MintRequest struct {
	Name            string `json:"name"`
	Activity        string `json:"activity"`
	Date            string `json:"date"`
	CertificateID   string `json:"certificateId,omitempty"`
	MetadataURI     string `json:"metadataUri"`
	RecipientWallet string `json:"recipientWallet"`
}

func (r MintRequest) toRequest() orchestrator.MintRequest {
	return orchestrator.MintRequest{
		Fact: domain.CertificateFact{
			Name:     r.Name,
			Activity: r.Activity,
			Date:     r.Date,
			ID:       r.CertificateID,
		},
		MetadataURI:      domain.ContentLocator(r.MetadataURI),
		RecipientAddress: r.RecipientWallet,
	}
}

// RenderRequest is the POST /certificates/render body.
type RenderRequest struct {
	Name          string `json:"name"`
	Activity      string `json:"activity"`
	Date          string `json:"date"`
	CertificateID string `json:"certificateId,omitempty"`
}

func (r RenderRequest) toFact() domain.CertificateFact {
	return domain.CertificateFact{
		Name:     r.Name,
		Activity: r.Activity,
		Date:     r.Date,
		ID:       r.CertificateID,
	}
}

// MintResponse mirrors domain.MintResult.
type MintResponse struct {
	MintAddress         string `json:"mintAddress"`
	TokenAccount        string `json:"tokenAccount"`
	MetadataAccount     string `json:"metadataAccount"`
	CreateMintSignature string `json:"createMintSignature,omitempty"`
	MintSignature       string `json:"mintSignature,omitempty"`
	MetadataSignature   string `json:"metadataSignature,omitempty"`
	Success             bool   `json:"success"`
}

// IssueResponse is returned for issuance runs, complete or partial.
type IssueResponse struct {
	CertificateID string        `json:"certificateId"`
	ImageURI      string        `json:"imageUri,omitempty"`
	MetadataURI   string        `json:"metadataUri,omitempty"`
	Mint          *MintResponse `json:"mint,omitempty"`
}

// RecordResponse is the GET /certificates/{id} body.
type RecordResponse struct {
	CertificateID    string        `json:"certificateId"`
	RecipientAddress string        `json:"recipientAddress"`
	ImageURI         string        `json:"imageUri,omitempty"`
	MetadataURI      string        `json:"metadataUri,omitempty"`
	Status           string        `json:"status"`
	FailedStage      string        `json:"failedStage,omitempty"`
	Error            string        `json:"error,omitempty"`
	CreatedAt        int64         `json:"createdAt"`
	Mint             *MintResponse `json:"mint,omitempty"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error       string         `json:"error"`
	Description string         `json:"error_description,omitempty"`
	Field       string         `json:"field,omitempty"`
	Store       string         `json:"store,omitempty"`
	Stage       string         `json:"stage,omitempty"`
	Partial     *IssueResponse `json:"partial,omitempty"`
}

func fromMint(m domain.MintResult) *MintResponse {
	return &MintResponse{
		MintAddress:         m.MintAddress,
		TokenAccount:        m.TokenAccount,
		MetadataAccount:     m.MetadataAccount,
		CreateMintSignature: m.CreateMintSignature,
		MintSignature:       m.MintSignature,
		MetadataSignature:   m.MetadataSignature,
		Success:             m.Success,
	}
}

func fromIssued(c domain.IssuedCertificate) IssueResponse {
	resp := IssueResponse{
		CertificateID: c.CertificateID,
		ImageURI:      c.ImageURI.String(),
		MetadataURI:   c.MetadataURI.String(),
	}
	if c.Mint != nil {
		resp.Mint = fromMint(*c.Mint)
	}
	return resp
}

func fromRecord(r *domain.IssuanceRecord) RecordResponse {
	resp := RecordResponse{
		CertificateID:    r.CertificateID,
		RecipientAddress: r.RecipientAddress,
		ImageURI:         r.ImageURI,
		MetadataURI:      r.MetadataURI,
		Status:           string(r.Status),
		FailedStage:      r.FailedStage,
		Error:            r.Error,
		CreatedAt:        r.CreatedAt,
	}
	if r.MintAddress != "" {
		resp.Mint = fromMint(domain.MintResult{
			MintAddress:         r.MintAddress,
			TokenAccount:        r.TokenAccount,
			MetadataAccount:     r.MetadataAccount,
			CreateMintSignature: r.CreateMintSignature,
			MintSignature:       r.MintSignature,
			MetadataSignature:   r.MetadataSignature,
			Success:             r.Status == domain.IssuanceMinted,
		})
	}
	return resp
}

package jwtsign

// Header is the protected header of a token. Only Algorithm is mandatory;
// absent optional fields are omitted from the serialized form.
type Header struct {
	Algorithm          Algorithm `json:"alg"           mapstructure:"alg" validate:"omitempty,algorithm"`
	ContentType        string    `json:"cty,omitempty" mapstructure:"cty"`
	JWKSetURL          string    `json:"jku,omitempty" mapstructure:"jku" validate:"omitempty,url"`
	KeyID              string    `json:"kid,omitempty" mapstructure:"kid"`
	Type               string    `json:"typ,omitempty" mapstructure:"typ"`
	X509CertThumbprint string    `json:"x5t,omitempty" mapstructure:"x5t"`
	X509CertChainURL   string    `json:"x5u,omitempty" mapstructure:"x5u" validate:"omitempty,url"`
}

// ToMap returns the exposed representation of the header: "alg" plus every
// optional field that is present.
func (h Header) ToMap() map[string]any {
	out := map[string]any{"alg": string(h.Algorithm)}
	for name, value := range map[string]string{
		"cty": h.ContentType,
		"jku": h.JWKSetURL,
		"kid": h.KeyID,
		"typ": h.Type,
		"x5t": h.X509CertThumbprint,
		"x5u": h.X509CertChainURL,
	} {
		if value != "" {
			out[name] = value
		}
	}
	return out
}

// CompleteToken is the composite result of a complete verify or decode.
type CompleteToken struct {
	Header    Header
	Payload   ClaimSet
	Signature string
}

// ToMap returns {payload, header, signature}.
func (t *CompleteToken) ToMap() map[string]any {
	return map[string]any{
		"payload":   map[string]any(t.Payload),
		"header":    t.Header.ToMap(),
		"signature": t.Signature,
	}
}

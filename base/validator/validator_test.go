package validator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValidatorTestSuite struct {
	suite.Suite
}

func (s *ValidatorTestSuite) TestIsValidAddress() {
	tests := []struct {
		desc       string
		address    string
		expIsValid bool
	}{
		{
			desc:       "invalid address",
			address:    "0x000",
			expIsValid: false,
		},
		{
			desc:       "valid address - real address",
			address:    "0x939ae6A4C8dfDBB1f7085189574F0A938013952A",
			expIsValid: true,
		},
		{
			desc:       "valid address - lower case",
			address:    "0x939ae6a4c8dfdbb1f7085189574f0a938013952b",
			expIsValid: true,
		},
	}
	for _, t := range tests {
		s.Equal(t.expIsValid, IsValidAddress(t.address), t.desc)
	}
}

type bidPayload struct {
	Bidder   string `validate:"required,eth_addr"`
	Amount   string `validate:"required,amount"`
	Currency string `validate:"currency"`
}

func (s *ValidatorTestSuite) TestCustomTags() {
	v := NewCustomValidator(New())
	bidder := "0x939ae6a4c8dfdbb1f7085189574f0a938013952b"

	tests := []struct {
		desc    string
		payload bidPayload
		valid   bool
	}{
		{"native bid", bidPayload{bidder, "0.02", "native"}, true},
		{"currency defaults", bidPayload{bidder, "1", ""}, true},
		{"oracle upper case", bidPayload{bidder, "1", "ORACLE"}, true},
		{"zero amount", bidPayload{bidder, "0", "native"}, false},
		{"negative amount", bidPayload{bidder, "-1", "native"}, false},
		{"not a number", bidPayload{bidder, "abc", "native"}, false},
		{"unknown currency", bidPayload{bidder, "1", "usd"}, false},
		{"bad bidder", bidPayload{"0x1", "1", "native"}, false},
	}
	for _, t := range tests {
		err := v.Validate(&t.payload)
		if t.valid {
			s.NoError(err, t.desc)
		} else {
			s.Error(err, t.desc)
		}
	}
}

func TestValidatorTestSuite(t *testing.T) {
	suite.Run(t, new(ValidatorTestSuite))
}

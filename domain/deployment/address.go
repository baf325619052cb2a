package deployment

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/x-xyz/auctionproxy/domain"
)

// ProxyAddress is where a CREATE from deployer at nonce lands.
func ProxyAddress(deployer domain.Address, nonce uint64) domain.Address {
	return domain.AddressOf(crypto.CreateAddress(deployer.Common(), nonce))
}

// ImplementationAddress is the CREATE2 address of an artifact, salted with
// its name and version so every version gets its own address.
func ImplementationAddress(deployer domain.Address, a *Artifact) domain.Address {
	salt := crypto.Keccak256Hash([]byte(a.Name), []byte(a.Version))
	initHash := crypto.Keccak256([]byte(a.Abi))
	return domain.AddressOf(crypto.CreateAddress2(deployer.Common(), salt, initHash))
}

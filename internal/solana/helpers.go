package solana

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program addresses.
const (
	TokenProgram           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgram = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	SystemProgram          = "11111111111111111111111111111111"
	WSOLMint               = "So11111111111111111111111111111111111111112"
)

// ValidAddress reports whether s is a plausible base-58 Solana address:
// 32-44 characters decoding to exactly 32 bytes.
func ValidAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	decoded, err := base58.Decode(s)
	return err == nil && len(decoded) == 32
}

// parseMintAccount decodes an SPL mint account.
// Layout: mintAuthorityOption(4) | mintAuthority(32) | supply(8 LE) |
// decimals(1) | initialized(1) | freezeAuthorityOption(4) | freezeAuthority(32)
func parseMintAccount(data string) (*MintInfo, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode mint account data: %w", err)
	}
	if len(decoded) < 82 {
		return nil, fmt.Errorf("mint account data too short: %d", len(decoded))
	}

	info := &MintInfo{
		Decimals: int(decoded[44]),
	}

	rawSupply := binary.LittleEndian.Uint64(decoded[36:44])
	supply := float64(rawSupply)
	for i := 0; i < info.Decimals; i++ {
		supply /= 10
	}
	info.Supply = supply

	if binary.LittleEndian.Uint32(decoded[0:4]) != 0 {
		auth := base58.Encode(decoded[4:36])
		info.MintAuthority = &auth
	}
	if binary.LittleEndian.Uint32(decoded[46:50]) != 0 {
		auth := base58.Encode(decoded[50:82])
		info.FreezeAuthority = &auth
	}
	return info, nil
}

// parseTokenAccountOwner decodes an SPL token account and returns its owner.
// Layout: mint(32) | owner(32) | amount(8) | ...
func parseTokenAccountOwner(data string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decode token account data: %w", err)
	}
	if len(decoded) < 64 {
		return "", fmt.Errorf("token account data too short: %d", len(decoded))
	}
	return base58.Encode(decoded[32:64]), nil
}

// DeriveAssociatedTokenAccount derives the canonical associated token
// account for (owner, mint). Used to attribute the creator's balance in the
// dev-holdings probe without scanning all holders.
func DeriveAssociatedTokenAccount(owner, mint string) (string, error) {
	ownerBytes, err := base58.Decode(owner)
	if err != nil {
		return "", fmt.Errorf("decode owner: %w", err)
	}
	mintBytes, err := base58.Decode(mint)
	if err != nil {
		return "", fmt.Errorf("decode mint: %w", err)
	}
	tokenProgramBytes, err := base58.Decode(TokenProgram)
	if err != nil {
		return "", err
	}
	ataProgramBytes, err := base58.Decode(AssociatedTokenProgram)
	if err != nil {
		return "", err
	}

	addr := derivePDA([][]byte{ownerBytes, tokenProgramBytes, mintBytes}, ataProgramBytes)
	if addr == "" {
		return "", fmt.Errorf("no valid bump for ATA of %s/%s", owner, mint)
	}
	return addr, nil
}

// derivePDA derives a Program Derived Address using the Solana algorithm:
// SHA256(seeds.. | bump | programID | "ProgramDerivedAddress"), taking the
// highest bump that lands off the ed25519 curve.
func derivePDA(seeds [][]byte, programID []byte) string {
	for bump := byte(255); bump > 0; bump-- {
		data := make([]byte, 0)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, bump)
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)

		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:])
		}
	}
	return ""
}

// isOnCurve reports whether a 32-byte point decodes on the ed25519 curve.
// Off-curve addresses are program derived; on-curve addresses are wallets.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}

// IsProgramDerived reports whether a base-58 address is off the ed25519
// curve, i.e. owned by a program (pool vault, escrow) rather than a wallet.
func IsProgramDerived(address string) bool {
	decoded, err := base58.Decode(address)
	if err != nil || len(decoded) != 32 {
		return false
	}
	return !isOnCurve(decoded)
}

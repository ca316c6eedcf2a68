package homomorphic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fxamacker/cbor/v2"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"

	"github.com/veilpoll/veilpoll/crypto/ecc"
	"github.com/veilpoll/veilpoll/crypto/ecc/curves"
	"github.com/veilpoll/veilpoll/crypto/elgamal"
	"github.com/veilpoll/veilpoll/crypto/ethereum"
	"github.com/veilpoll/veilpoll/crypto/hash/poseidon"
	"github.com/veilpoll/veilpoll/types"
)

var (
	// Prefixes of the simulator state in the shared key-value store.
	simulatorPrefix = []byte("hom/")
	keyPrefix       = []byte("k/")
	cipherPrefix    = []byte("c/")
	grantPrefix     = []byte("g/")
	optionsPrefix   = []byte("n/")
	ballotsPrefix   = []byte("v/")
	metaPrefix      = []byte("meta/")
)

// signerKey is the key of the persisted oracle signer under metaPrefix.
var signerKey = []byte("signer")

// Simulator implements Coprocessor and DecryptionOracle with real ElGamal
// ciphertexts: counters are encryptions of their plaintext value, Add is
// homomorphic point addition and DecryptTally solves the discrete log with
// baby-step giant-step. Equality and select gates decrypt internally with the
// poll private key the simulator owns, which is exactly the capability the
// real subsystem has and the core does not. Proofs are Ethereum signatures:
// voters sign their ballots, the simulator's persistent oracle key signs
// decryptions.
type Simulator struct {
	db        db.Database
	curveType string
	signer    *ethereum.SignKeys
	lock      sync.Mutex
}

// pollKey is the per-poll encryption key pair artifact.
type pollKey struct {
	CurveType  string        `cbor:"0,keyasint"`
	X          *types.BigInt `cbor:"1,keyasint"`
	Y          *types.BigInt `cbor:"2,keyasint"`
	PrivateKey *types.BigInt `cbor:"3,keyasint"`
}

// NewSimulator creates a Simulator persisting its state in the given database
// under its own prefix. The curveType selects the ElGamal group for all polls
// created through this instance.
func NewSimulator(database db.Database, curveType string) (*Simulator, error) {
	s := &Simulator{
		db:        prefixeddb.NewPrefixedDatabase(database, simulatorPrefix),
		curveType: curveType,
		signer:    ethereum.NewSignKeys(),
	}
	if err := s.loadOrCreateSigner(); err != nil {
		return nil, fmt.Errorf("simulator signer: %w", err)
	}
	return s, nil
}

// loadOrCreateSigner restores the oracle signing key from the database or
// generates and persists a new one.
func (s *Simulator) loadOrCreateSigner() error {
	rd := prefixeddb.NewPrefixedReader(s.db, metaPrefix)
	data, err := rd.Get(signerKey)
	if err == nil {
		return s.signer.AddHexKey(string(data))
	}
	if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	if err := s.signer.Generate(); err != nil {
		return err
	}
	_, priv := s.signer.HexString()
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), metaPrefix)
	if err := wTx.Set(signerKey, []byte(priv)); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// OracleAddress returns the address whose signatures VerifyDecryption accepts.
func (s *Simulator) OracleAddress() common.Address {
	return s.signer.Address()
}

// InitCounters mints the poll encryption key pair and n encrypted-zero
// counters. It fails with ErrPollKeyExists if the poll was already
// initialized.
func (s *Simulator) InitCounters(pollID types.PollID, n int) ([]types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, err := s.loadPollKey(pollID); err == nil {
		return nil, ErrPollKeyExists
	} else if !errors.Is(err, ErrPollKeyNotFound) {
		return nil, err
	}

	curve := curves.New(s.curveType)
	publicKey, privateKey, err := elgamal.GenerateKey(curve)
	if err != nil {
		return nil, fmt.Errorf("generate poll key: %w", err)
	}
	x, y := publicKey.Point()
	pk := &pollKey{
		CurveType:  s.curveType,
		X:          (*types.BigInt)(x),
		Y:          (*types.BigInt)(y),
		PrivateKey: (*types.BigInt)(privateKey),
	}
	if err := s.storePollKey(pollID, pk); err != nil {
		return nil, err
	}
	if err := s.setCounter(optionsPrefix, pollID, uint64(n)); err != nil {
		return nil, err
	}

	handles := make([]types.HexBytes, n)
	for i := range handles {
		ct := elgamal.NewCiphertext(curve)
		if _, err := ct.Encrypt(big.NewInt(0), publicKey, nil); err != nil {
			return nil, err
		}
		if handles[i], err = s.storeCiphertext(pollID, ct); err != nil {
			return nil, err
		}
	}
	return handles, nil
}

// PublicKey returns the poll's public encryption key.
func (s *Simulator) PublicKey(pollID types.PollID) (*types.EncryptionKey, error) {
	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, err
	}
	return &types.EncryptionKey{
		CurveType: pk.CurveType,
		X:         pk.X.MathBigInt(),
		Y:         pk.Y.MathBigInt(),
	}, nil
}

// ImportBallot admits an externally encrypted ballot. The proof must be the
// voter's Ethereum signature over BallotMessage(pollID, ballot); the ballot
// must deserialize on the poll's curve and encrypt a value below the poll's
// option count.
func (s *Simulator) ImportBallot(pollID types.PollID, voter common.Address, ballot, proof types.HexBytes) (types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, err
	}
	recovered, err := ethereum.AddrFromSignature(BallotMessage(pollID, ballot), proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if recovered != voter {
		return nil, fmt.Errorf("%w: signer %s is not the voter", ErrInvalidProof, recovered)
	}

	ct := elgamal.NewCiphertext(curves.New(pk.CurveType))
	if err := ct.Deserialize(ballot); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBallot, err)
	}
	options, err := s.getCounter(optionsPrefix, pollID)
	if err != nil {
		return nil, err
	}
	// the ballot must encrypt a valid option index, mirroring the range
	// proof of the real subsystem
	value, err := s.decryptValue(pk, ct, options-1)
	if err != nil || value >= options {
		return nil, fmt.Errorf("%w: plaintext out of range", ErrMalformedBallot)
	}

	imported, err := s.getCounter(ballotsPrefix, pollID)
	if err != nil {
		return nil, err
	}
	if err := s.setCounter(ballotsPrefix, pollID, imported+1); err != nil {
		return nil, err
	}
	return s.storeCiphertext(pollID, ct)
}

// Eq yields a fresh encryption of 1 if the handle's plaintext equals index,
// of 0 otherwise.
func (s *Simulator) Eq(pollID types.PollID, handle types.HexBytes, index uint64) (types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, err
	}
	ct, err := s.loadCiphertext(pk, pollID, handle)
	if err != nil {
		return nil, err
	}
	options, err := s.getCounter(optionsPrefix, pollID)
	if err != nil {
		return nil, err
	}
	value, err := s.decryptValue(pk, ct, options-1)
	if err != nil {
		return nil, fmt.Errorf("eq operand: %w", err)
	}
	bit := int64(0)
	if value == index {
		bit = 1
	}
	return s.encryptValue(pollID, pk, big.NewInt(bit))
}

// Select yields ifTrue if the condition bit decrypts to 1, ifFalse otherwise.
// The result is rerandomized with a fresh encryption of zero, so it never
// equals either input handle.
func (s *Simulator) Select(pollID types.PollID, cond, ifTrue, ifFalse types.HexBytes) (types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, err
	}
	condCt, err := s.loadCiphertext(pk, pollID, cond)
	if err != nil {
		return nil, err
	}
	trueCt, err := s.loadCiphertext(pk, pollID, ifTrue)
	if err != nil {
		return nil, err
	}
	falseCt, err := s.loadCiphertext(pk, pollID, ifFalse)
	if err != nil {
		return nil, err
	}
	bit, err := s.decryptValue(pk, condCt, 1)
	if err != nil {
		return nil, fmt.Errorf("select condition: %w", err)
	}
	chosen := falseCt
	if bit == 1 {
		chosen = trueCt
	}

	zero := elgamal.NewCiphertext(curves.New(pk.CurveType))
	if _, err := zero.Encrypt(big.NewInt(0), s.publicPoint(pk), nil); err != nil {
		return nil, err
	}
	result := elgamal.NewCiphertext(curves.New(pk.CurveType))
	result.Add(chosen, zero)
	return s.storeCiphertext(pollID, result)
}

// Add yields the homomorphic sum of the two handles.
func (s *Simulator) Add(pollID types.PollID, a, b types.HexBytes) (types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, err
	}
	aCt, err := s.loadCiphertext(pk, pollID, a)
	if err != nil {
		return nil, err
	}
	bCt, err := s.loadCiphertext(pk, pollID, b)
	if err != nil {
		return nil, err
	}
	result := elgamal.NewCiphertext(curves.New(pk.CurveType))
	result.Add(aCt, bCt)
	return s.storeCiphertext(pollID, result)
}

// Constant yields a fresh encryption of a public value.
func (s *Simulator) Constant(pollID types.PollID, value uint64) (types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, err
	}
	return s.encryptValue(pollID, pk, new(big.Int).SetUint64(value))
}

// AllowDecryption grants public decryptability to the handles. The grant
// cannot be revoked.
func (s *Simulator) AllowDecryption(pollID types.PollID, handles []types.HexBytes) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return err
	}
	for _, handle := range handles {
		if _, err := s.loadCiphertext(pk, pollID, handle); err != nil {
			return err
		}
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), grantPrefix)
	for _, handle := range handles {
		if err := wTx.Set(cipherKey(pollID, handle), []byte{1}); err != nil {
			wTx.Discard()
			return err
		}
	}
	return wTx.Commit()
}

// VerifyDecryption checks that the proof is the oracle's signature over this
// poll, exactly these handles in order, and the encoded plaintexts.
func (s *Simulator) VerifyDecryption(pollID types.PollID, handles []types.HexBytes, encoded, proof types.HexBytes) error {
	if _, err := s.loadPollKey(pollID); err != nil {
		return err
	}
	recovered, err := ethereum.AddrFromSignature(ResultsMessage(pollID, handles, encoded), proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if recovered != s.signer.Address() {
		return fmt.Errorf("%w: signer %s is not the oracle", ErrInvalidProof, recovered)
	}
	return nil
}

// DecryptTally decrypts the granted handles and signs the result. Each
// plaintext is encoded as a 32 byte big-endian word, concatenated in handle
// order.
func (s *Simulator) DecryptTally(pollID types.PollID, handles []types.HexBytes) (types.HexBytes, types.HexBytes, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	pk, err := s.loadPollKey(pollID)
	if err != nil {
		return nil, nil, err
	}
	imported, err := s.getCounter(ballotsPrefix, pollID)
	if err != nil {
		return nil, nil, err
	}

	grants := prefixeddb.NewPrefixedReader(s.db, grantPrefix)
	encoded := make(types.HexBytes, 0, len(handles)*types.ResultWordSize)
	for _, handle := range handles {
		if _, err := grants.Get(cipherKey(pollID, handle)); err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				return nil, nil, ErrNotDecryptable
			}
			return nil, nil, err
		}
		ct, err := s.loadCiphertext(pk, pollID, handle)
		if err != nil {
			return nil, nil, err
		}
		// no counter can exceed the number of imported ballots
		value, err := s.decryptValue(pk, ct, imported)
		if err != nil {
			return nil, nil, fmt.Errorf("decrypt tally: %w", err)
		}
		word := make([]byte, types.ResultWordSize)
		new(big.Int).SetUint64(value).FillBytes(word)
		encoded = append(encoded, word...)
	}

	proof, err := s.signer.SignEthereum(ResultsMessage(pollID, handles, encoded))
	if err != nil {
		return nil, nil, err
	}
	return encoded, proof, nil
}

// cipherKey builds the per-poll key of a ciphertext or grant record.
func cipherKey(pollID types.PollID, handle types.HexBytes) []byte {
	return append(pollID.Bytes(), handle...)
}

// handleOf derives the content-addressed handle of a ciphertext: a Poseidon
// digest over the poll id and the serialized ciphertext split in field-sized
// limbs.
func handleOf(pollID types.PollID, ct *elgamal.Ciphertext) (types.HexBytes, error) {
	data := ct.Serialize()
	inputs := []*big.Int{new(big.Int).SetUint64(uint64(pollID))}
	for i := 0; i < len(data); i += 31 {
		end := min(i+31, len(data))
		inputs = append(inputs, new(big.Int).SetBytes(data[i:end]))
	}
	digest, err := poseidon.MultiPoseidon(inputs...)
	if err != nil {
		return nil, err
	}
	handle := make(types.HexBytes, types.HandleSize)
	digest.FillBytes(handle)
	return handle, nil
}

// storeCiphertext persists the serialized ciphertext under its handle.
func (s *Simulator) storeCiphertext(pollID types.PollID, ct *elgamal.Ciphertext) (types.HexBytes, error) {
	handle, err := handleOf(pollID, ct)
	if err != nil {
		return nil, err
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), cipherPrefix)
	if err := wTx.Set(cipherKey(pollID, handle), ct.Serialize()); err != nil {
		wTx.Discard()
		return nil, err
	}
	if err := wTx.Commit(); err != nil {
		return nil, err
	}
	return handle, nil
}

// loadCiphertext retrieves a ciphertext of the poll by handle.
func (s *Simulator) loadCiphertext(pk *pollKey, pollID types.PollID, handle types.HexBytes) (*elgamal.Ciphertext, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, cipherPrefix)
	data, err := rd.Get(cipherKey(pollID, handle))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrUnknownHandle
		}
		return nil, err
	}
	ct := elgamal.NewCiphertext(curves.New(pk.CurveType))
	if err := ct.Deserialize(data); err != nil {
		return nil, err
	}
	return ct, nil
}

// encryptValue encrypts a public value with fresh randomness and stores it.
func (s *Simulator) encryptValue(pollID types.PollID, pk *pollKey, value *big.Int) (types.HexBytes, error) {
	ct := elgamal.NewCiphertext(curves.New(pk.CurveType))
	if _, err := ct.Encrypt(value, s.publicPoint(pk), nil); err != nil {
		return nil, err
	}
	return s.storeCiphertext(pollID, ct)
}

// publicPoint rebuilds the poll public key point from its stored coordinates.
func (s *Simulator) publicPoint(pk *pollKey) ecc.Point {
	return curves.New(pk.CurveType).SetPoint(pk.X.MathBigInt(), pk.Y.MathBigInt())
}

// decryptValue decrypts a ciphertext with the poll private key, solving the
// discrete log up to max.
func (s *Simulator) decryptValue(pk *pollKey, ct *elgamal.Ciphertext, max uint64) (uint64, error) {
	_, value, err := elgamal.Decrypt(s.publicPoint(pk), pk.PrivateKey.MathBigInt(), ct.C1, ct.C2, max)
	if err != nil {
		return 0, err
	}
	return value.Uint64(), nil
}

// storePollKey persists the poll key pair artifact.
func (s *Simulator) storePollKey(pollID types.PollID, pk *pollKey) error {
	encOpts, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return err
	}
	data, err := encOpts.Marshal(pk)
	if err != nil {
		return fmt.Errorf("encode poll key: %w", err)
	}
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), keyPrefix)
	if err := wTx.Set(pollID.Bytes(), data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

// loadPollKey retrieves the poll key pair artifact.
func (s *Simulator) loadPollKey(pollID types.PollID) (*pollKey, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, keyPrefix)
	data, err := rd.Get(pollID.Bytes())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, ErrPollKeyNotFound
		}
		return nil, err
	}
	pk := &pollKey{}
	if err := cbor.Unmarshal(data, pk); err != nil {
		return nil, fmt.Errorf("decode poll key: %w", err)
	}
	return pk, nil
}

// getCounter reads a per-poll uint64 counter, zero when absent.
func (s *Simulator) getCounter(prefix []byte, pollID types.PollID) (uint64, error) {
	rd := prefixeddb.NewPrefixedReader(s.db, prefix)
	data, err := rd.Get(pollID.Bytes())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

// setCounter writes a per-poll uint64 counter.
func (s *Simulator) setCounter(prefix []byte, pollID types.PollID, value uint64) error {
	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, value)
	wTx := prefixeddb.NewPrefixedWriteTx(s.db.WriteTx(), prefix)
	if err := wTx.Set(pollID.Bytes(), data); err != nil {
		wTx.Discard()
		return err
	}
	return wTx.Commit()
}

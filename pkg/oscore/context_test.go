package oscore

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequence(t *testing.T) {
	ctx, err := Derive(clientParams(t), nil)
	require.NoError(t, err)

	for want := uint64(0); want < 3; want++ {
		got, err := ctx.NextSequence()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	t.Run("Exhausted", func(t *testing.T) {
		ctx.senderSeq = MaxSequenceNumber
		seq, err := ctx.NextSequence()
		require.NoError(t, err)
		assert.Equal(t, MaxSequenceNumber, seq)

		_, err = ctx.NextSequence()
		assert.ErrorIs(t, err, ErrSequenceExhausted)
	})
}

func TestNextSequenceConcurrent(t *testing.T) {
	ctx, err := Derive(clientParams(t), nil)
	require.NoError(t, err)

	const workers, per = 8, 100
	seen := make(chan uint64, workers*per)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < per; j++ {
				seq, err := ctx.NextSequence()
				if err != nil {
					t.Errorf("NextSequence() error = %v", err)
					return
				}
				seen <- seq
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint64]bool)
	for seq := range seen {
		if unique[seq] {
			t.Fatalf("sequence number %d handed out twice", seq)
		}
		unique[seq] = true
	}
	assert.Len(t, unique, workers*per)
}

func TestCheckReplay(t *testing.T) {
	tests := []struct {
		name    string
		accept  []uint64
		check   uint64
		wantErr bool
	}{
		{"First", nil, 5, false},
		{"Duplicate", []uint64{5}, 5, true},
		{"Newer", []uint64{5}, 6, false},
		{"OlderInWindow", []uint64{5, 10}, 7, false},
		{"OlderSeenInWindow", []uint64{5, 10}, 5, true},
		{"EdgeOfWindow", []uint64{40}, 9, false},
		{"OutsideWindow", []uint64{40}, 8, true},
		{"JumpClearsWindow", []uint64{1, 2, 100}, 99, false},
		{"OutOfRange", nil, MaxSequenceNumber + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, err := Derive(clientParams(t), nil)
			require.NoError(t, err)
			for _, seq := range tt.accept {
				require.NoError(t, ctx.CheckReplay(seq))
			}

			err = ctx.CheckReplay(tt.check)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckReplay(%d) error = %v, wantErr %v", tt.check, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrReplay) {
				t.Errorf("CheckReplay(%d) error = %v, want ErrReplay", tt.check, err)
			}
		})
	}
}

func TestNonceErrors(t *testing.T) {
	ctx, err := Derive(clientParams(t), nil)
	require.NoError(t, err)

	_, err = ctx.Nonce(MaxSequenceNumber+1, nil)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = ctx.Nonce(0, make([]byte, 8))
	assert.ErrorIs(t, err, ErrInvalidParameters)

	a, err := ctx.Nonce(1, []byte{0x01})
	require.NoError(t, err)
	b, err := ctx.Nonce(2, []byte{0x01})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealOpen(t *testing.T) {
	for _, alg := range []AEADAlg{AlgAESCCM16_64_128, AlgAESCCM16_128_128, AlgA128GCM, AlgA192GCM, AlgA256GCM, AlgChaCha20Poly1305} {
		t.Run(alg.String(), func(t *testing.T) {
			cp, sp := clientParams(t), serverParams(t)
			cp.AEADAlgorithm, sp.AEADAlgorithm = alg, alg

			client, err := Derive(cp, nil)
			require.NoError(t, err)
			server, err := Derive(sp, nil)
			require.NoError(t, err)

			aad := []byte("external aad")
			seq, ciphertext, err := client.Seal([]byte("GET /1/0"), aad)
			require.NoError(t, err)

			plaintext, err := server.Open(seq, ciphertext, aad)
			require.NoError(t, err)
			assert.Equal(t, []byte("GET /1/0"), plaintext)

			_, err = server.Open(seq, ciphertext, aad)
			assert.ErrorIs(t, err, ErrReplay)
		})
	}

	t.Run("TamperedNotRecorded", func(t *testing.T) {
		client, _ := Derive(clientParams(t), nil)
		server, _ := Derive(serverParams(t), nil)

		seq, ciphertext, err := client.Seal([]byte("payload"), nil)
		require.NoError(t, err)

		tampered := append([]byte(nil), ciphertext...)
		tampered[0] ^= 0x01
		_, err = server.Open(seq, tampered, nil)
		assert.ErrorIs(t, err, ErrDecrypt)

		// A forged message must not burn the sequence number.
		plaintext, err := server.Open(seq, ciphertext, nil)
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), plaintext)
	})

	t.Run("WrongAAD", func(t *testing.T) {
		client, _ := Derive(clientParams(t), nil)
		server, _ := Derive(serverParams(t), nil)

		seq, ciphertext, err := client.Seal([]byte("payload"), []byte("a"))
		require.NoError(t, err)
		_, err = server.Open(seq, ciphertext, []byte("b"))
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestRederivationPhase(t *testing.T) {
	ctx, err := Derive(clientParams(t), nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseNone, ctx.RederivationPhase())
	assert.False(t, ctx.RederivationEnabled())

	ctx.SetRederivationPhase(PhaseClientInitiate)
	assert.Equal(t, PhaseClientInitiate, ctx.RederivationPhase())
	assert.True(t, ctx.RederivationEnabled())
	assert.Equal(t, "CLIENT_INITIATE", ctx.RederivationPhase().String())
}

func TestFallback(t *testing.T) {
	var f Fallback
	assert.False(t, f.Detected())
	f.SetDetected(true)
	assert.True(t, f.Detected())
	f.SetDetected(false)
	assert.False(t, f.Detected())
}

package duel

// mt19937 is the Mersenne Twister used for every random decision in a
// duel. Replays depend on it producing the reference sequence exactly,
// so the bounded-integer rejection step and the shuffle order must not
// be altered.
type mt19937 struct {
	mt  [624]uint32
	mti int
}

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

func newMT19937(seed uint32) *mt19937 {
	r := &mt19937{mti: mtN}
	r.mt[0] = seed
	for i := 1; i < mtN; i++ {
		prev := r.mt[i-1]
		r.mt[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	return r
}

func (r *mt19937) next() uint32 {
	if r.mti >= mtN {
		var kk int
		for ; kk < mtN-mtM; kk++ {
			y := (r.mt[kk] & mtUpperMask) | (r.mt[kk+1] & mtLowerMask)
			r.mt[kk] = r.mt[kk+mtM] ^ (y >> 1) ^ twist(y)
		}
		for ; kk < mtN-1; kk++ {
			y := (r.mt[kk] & mtUpperMask) | (r.mt[kk+1] & mtLowerMask)
			r.mt[kk] = r.mt[kk+mtM-mtN] ^ (y >> 1) ^ twist(y)
		}
		y := (r.mt[mtN-1] & mtUpperMask) | (r.mt[0] & mtLowerMask)
		r.mt[mtN-1] = r.mt[mtM-1] ^ (y >> 1) ^ twist(y)
		r.mti = 0
	}

	y := r.mt[r.mti]
	r.mti++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

func twist(y uint32) uint32 {
	if y&1 != 0 {
		return mtMatrixA
	}
	return 0
}

// intn returns a uniform integer in [min, max] using rejection
// sampling, matching the reference distribution.
func (r *mt19937) intn(min, max int) int {
	rng := uint64(max-min) + 1
	bound := (uint64(1) << 32) % rng
	x := r.next()
	for uint64(x) < bound {
		x = r.next()
	}
	return min + int(uint64(x)%rng)
}

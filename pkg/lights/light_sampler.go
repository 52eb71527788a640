package lights

// UniformLightSampler picks one light per query, each with probability 1/len(lights)
type UniformLightSampler struct {
	lights []Light
}

// NewUniformLightSampler creates a light sampler with equal weights for all lights
func NewUniformLightSampler(lights []Light) *UniformLightSampler {
	return &UniformLightSampler{lights: lights}
}

// SampleLight selects a light with u in [0, 1).
// Returns the selected light, its selection probability, and its index.
func (s *UniformLightSampler) SampleLight(u float64) (Light, float64, int) {
	n := len(s.lights)
	if n == 0 {
		return nil, 0, -1
	}
	// Rounding can leave u just past the last boundary
	i := min(int(u*float64(n)), n-1)
	return s.lights[i], 1 / float64(n), i
}

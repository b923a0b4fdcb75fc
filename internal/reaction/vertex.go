package reaction

// Vertex groups the steps whose products originate at the same point.
type Vertex struct {
	Steps []int
	// Production is set for the vertex holding a beam-initiated first step.
	Production bool
}

// Vertices groups steps into vertices in breadth-first order from step 0.
// A decay of a detached-vertex particle starts a new vertex; every other decay
// stays at its parent's vertex.
func (r *Reaction) Vertices() []Vertex {
	vertices := []Vertex{{Steps: []int{0}, Production: r.FirstStepBeam()}}
	for vi := 0; vi < len(vertices); vi++ {
		for i := 0; i < len(vertices[vi].Steps); i++ {
			step := vertices[vi].Steps[i]
			for _, f := range r.Steps[step].Finals {
				if !f.Decays() {
					continue
				}
				if f.PID.IsDetachedVertex() {
					vertices = append(vertices, Vertex{Steps: []int{f.DecayStep}})
					continue
				}
				vertices[vi].Steps = append(vertices[vi].Steps, f.DecayStep)
			}
		}
	}
	return vertices
}

// StepVertices maps each step index to the index of its vertex in Vertices.
func (r *Reaction) StepVertices() []int {
	out := make([]int, len(r.Steps))
	for vi, v := range r.Vertices() {
		for _, s := range v.Steps {
			out[s] = vi
		}
	}
	return out
}

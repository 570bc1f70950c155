package model

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type Shaping int

const (
	LinearShaping    Shaping = iota // (r - base) per assignment
	QuadraticShaping                // (r - base)^2 per assignment
)

func (shaping Shaping) String() string {
	switch shaping {
	case LinearShaping:
		return "linear"
	case QuadraticShaping:
		return "quadratic"
	}
	return fmt.Sprintf("Shaping(%d)", int(shaping))
}

func ParseShaping(value string) (Shaping, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "linear", "":
		return LinearShaping, nil
	case "quadratic":
		return QuadraticShaping, nil
	}
	return 0, configurationError("unknown objective shaping %q (allowed: linear, quadratic)", value)
}

// Slot identifies a session during a given rotation
type Slot struct {
	Session  uint64
	Rotation uint64
}

type SchedulingPolicy struct {
	Capacity  uint64 // Maximum number of students per session and rotation
	Rotations uint64
	// Excluded slots are left out of the rotation's one-session-per-student sum, their capacity is forced to 0
	Excluded []Slot
	// Closed slots remain part of the rotation's sum but their capacity is forced to 0
	Closed   []Slot
	Shaping  Shaping
	RankBase int64 // Ranking that costs nothing (the most preferred one)
}

const (
	DefaultCapacity  uint64 = 20
	DefaultRotations uint64 = 3
	DefaultRankBase  int64  = 1
)

func DefaultPolicy() SchedulingPolicy {
	return SchedulingPolicy{
		Capacity:  DefaultCapacity,
		Rotations: DefaultRotations,
		Shaping:   LinearShaping,
		RankBase:  DefaultRankBase,
	}
}

// Excludes the last session from the last rotation (i.e. the session closes before the final rotation)
func (policy SchedulingPolicy) WithClosingSlot(sessions uint64) SchedulingPolicy {
	if sessions == 0 || policy.Rotations == 0 {
		return policy
	}
	slot := Slot{Session: sessions - 1, Rotation: policy.Rotations - 1}
	if !slices.Contains(policy.Excluded, slot) {
		policy.Excluded = append(slices.Clone(policy.Excluded), slot)
	}
	return policy
}

func (policy SchedulingPolicy) Validate(sessions uint64) error {
	if policy.Capacity == 0 {
		return configurationError("capacity per session must be positive")
	} else if policy.Rotations == 0 {
		return configurationError("number of rotations must be positive")
	} else if policy.Shaping != LinearShaping && policy.Shaping != QuadraticShaping {
		return configurationError("unknown objective shaping %v", policy.Shaping)
	}

	for _, slot := range slices.Concat(policy.Excluded, policy.Closed) {
		if slot.Session >= sessions {
			return configurationError("slot (session %d, rotation %d) refers to an unknown session, there are %d sessions", slot.Session, slot.Rotation, sessions)
		} else if slot.Rotation >= policy.Rotations {
			return configurationError("slot (session %d, rotation %d) refers to an unknown rotation, there are %d rotations", slot.Session, slot.Rotation, policy.Rotations)
		}
	}

	// Every rotation must keep at least one session to sum over
	evaluator := newSlotEvaluator(policy, sessions)
	for rotation := range policy.Rotations {
		if !lo.SomeBy(lo.Range(int(sessions)), func(session int) bool { return evaluator.Available(uint64(session), rotation) }) {
			return configurationError("rotation %d has no available sessions after exclusions", rotation)
		}
	}

	return nil
}

type RawSlot struct {
	Session  any // Session name or index
	Rotation uint64
}

type RawPolicy struct {
	Capacity    *uint64
	Rotations   *uint64
	Shaping     string
	RankBase    *int64
	ClosingSlot bool // Exclude the last session from the last rotation
	Excluded    []RawSlot
	Closed      []RawSlot
}

// PolicyOverrides holds values given outside the policy file. Nil fields keep the file's value
type PolicyOverrides struct {
	Capacity    *uint64
	Rotations   *uint64
	Shaping     *string
	RankBase    *int64
	ClosingSlot bool
}

func (rawPolicy RawPolicy) WithOverrides(overrides PolicyOverrides) RawPolicy {
	if overrides.Capacity != nil {
		rawPolicy.Capacity = overrides.Capacity
	}
	if overrides.Rotations != nil {
		rawPolicy.Rotations = overrides.Rotations
	}
	if overrides.Shaping != nil {
		rawPolicy.Shaping = *overrides.Shaping
	}
	if overrides.RankBase != nil {
		rawPolicy.RankBase = overrides.RankBase
	}
	rawPolicy.ClosingSlot = rawPolicy.ClosingSlot || overrides.ClosingSlot
	return rawPolicy
}

func PolicyFromYaml(file string, sessions []string) (SchedulingPolicy, error) {
	rawPolicy, err := RawPolicyFromYaml(file)
	if err != nil {
		return SchedulingPolicy{}, err
	}
	return ProcessRawPolicy(rawPolicy, sessions)
}

// Decodes the policy file without resolving presets or validating it
func RawPolicyFromYaml(file string) (RawPolicy, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return RawPolicy{}, err
	}

	var inputYaml map[string]any
	if err := yaml.Unmarshal(bytes, &inputYaml); err != nil {
		return RawPolicy{}, fmt.Errorf("cannot parse policy file: %w", err)
	}

	var rawPolicy RawPolicy
	if err := mapstructure.Decode(inputYaml, &rawPolicy); err != nil {
		return RawPolicy{}, configurationError("malformed policy file: %v", err)
	}
	return rawPolicy, nil
}

func ProcessRawPolicy(rawPolicy RawPolicy, sessions []string) (SchedulingPolicy, error) {
	policy := DefaultPolicy()
	if rawPolicy.Capacity != nil {
		policy.Capacity = *rawPolicy.Capacity
	}
	if rawPolicy.Rotations != nil {
		policy.Rotations = *rawPolicy.Rotations
	}
	if rawPolicy.RankBase != nil {
		policy.RankBase = *rawPolicy.RankBase
	}

	shaping, err := ParseShaping(rawPolicy.Shaping)
	if err != nil {
		return SchedulingPolicy{}, err
	}
	policy.Shaping = shaping

	resolve := func(rawSlots []RawSlot) ([]Slot, error) {
		if len(rawSlots) == 0 {
			return nil, nil
		}
		slots := make([]Slot, 0, len(rawSlots))
		for _, rawSlot := range rawSlots {
			session, err := resolveSession(rawSlot.Session, sessions)
			if err != nil {
				return nil, err
			}
			slots = append(slots, Slot{Session: session, Rotation: rawSlot.Rotation})
		}
		return slots, nil
	}

	if policy.Excluded, err = resolve(rawPolicy.Excluded); err != nil {
		return SchedulingPolicy{}, err
	}
	if policy.Closed, err = resolve(rawPolicy.Closed); err != nil {
		return SchedulingPolicy{}, err
	}
	if rawPolicy.ClosingSlot {
		policy = policy.WithClosingSlot(uint64(len(sessions)))
	}

	return policy, policy.Validate(uint64(len(sessions)))
}

func resolveSession(value any, sessions []string) (uint64, error) {
	switch session := value.(type) {
	case int:
		if session < 0 {
			return 0, configurationError("negative session index %d", session)
		}
		return uint64(session), nil
	case uint64:
		return session, nil
	case string:
		if index := slices.Index(sessions, session); index >= 0 {
			return uint64(index), nil
		}
		if index, err := strconv.ParseUint(session, 10, 64); err == nil {
			return index, nil
		}
		return 0, configurationError("unknown session %q", session)
	}
	return 0, configurationError("invalid session reference %v", value)
}

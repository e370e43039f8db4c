package graph

import "github.com/c2h5oh/datasize"

// RegisterArray is a standalone runtime object (not part of any
// pipeline's node graph) referenced by actions by name.
type RegisterArray struct {
	Name     string
	Size     uint32
	BitWidth uint32
}

// ChangeType selects the mutation applied by
// Program.ChangeRegisterArray.
type ChangeType int

const (
	ResizeRegisterArray     ChangeType = 0
	RebitwidthRegisterArray ChangeType = 1
)

// Footprint reports the memory an array of this shape would occupy,
// rendered with the same datasize.ByteSize type the teacher uses for
// MemoryRequirements (controlplane/modules/route/cfg.go) — see
// SPEC_FULL.md §9.
func (r *RegisterArray) Footprint() datasize.ByteSize {
	bits := uint64(r.Size) * uint64(r.BitWidth)
	return datasize.ByteSize((bits + 7) / 8)
}

func (p *Program) InsertRegisterArray(name string, size, bitwidth uint32) (string, *ReconfigError) {
	if size == 0 || bitwidth == 0 {
		return "", NewError(InvalidCommandError, "register array %q must have nonzero size and bitwidth", name)
	}
	if _, exists := p.Registers[name]; exists {
		return "", NewError(InvalidCommandError, "register array %q already exists", name)
	}
	p.Registers[name] = &RegisterArray{Name: name, Size: size, BitWidth: bitwidth}
	return name, nil
}

func (p *Program) ChangeRegisterArray(name string, changeType ChangeType, value uint32) *ReconfigError {
	reg, ok := p.Registers[name]
	if !ok {
		return NewError(InvalidCommandError, "register array %q not found", name)
	}
	switch changeType {
	case ResizeRegisterArray:
		reg.Size = value
	case RebitwidthRegisterArray:
		reg.BitWidth = value
	default:
		return NewError(InvalidCommandError, "invalid register array change_type %d", int(changeType))
	}
	return nil
}

func (p *Program) DeleteRegisterArray(name string) *ReconfigError {
	if _, ok := p.Registers[name]; !ok {
		return NewError(InvalidCommandError, "register array %q not found", name)
	}
	delete(p.Registers, name)
	return nil
}

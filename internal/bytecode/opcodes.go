package bytecode

// Opcode is a JVM instruction opcode (0x00..0xc9).
type Opcode uint8

const (
	Nop             Opcode = 0x00
	AconstNull      Opcode = 0x01
	IconstM1        Opcode = 0x02
	Iconst0         Opcode = 0x03
	Iconst1         Opcode = 0x04
	Iconst2         Opcode = 0x05
	Iconst3         Opcode = 0x06
	Iconst4         Opcode = 0x07
	Iconst5         Opcode = 0x08
	Lconst0         Opcode = 0x09
	Lconst1         Opcode = 0x0a
	Fconst0         Opcode = 0x0b
	Fconst1         Opcode = 0x0c
	Fconst2         Opcode = 0x0d
	Dconst0         Opcode = 0x0e
	Dconst1         Opcode = 0x0f
	Bipush          Opcode = 0x10
	Sipush          Opcode = 0x11
	Ldc             Opcode = 0x12
	LdcW            Opcode = 0x13
	Ldc2W           Opcode = 0x14
	Iload           Opcode = 0x15
	Lload           Opcode = 0x16
	Fload           Opcode = 0x17
	Dload           Opcode = 0x18
	Aload           Opcode = 0x19
	Iload0          Opcode = 0x1a
	Iload1          Opcode = 0x1b
	Iload2          Opcode = 0x1c
	Iload3          Opcode = 0x1d
	Lload0          Opcode = 0x1e
	Lload1          Opcode = 0x1f
	Lload2          Opcode = 0x20
	Lload3          Opcode = 0x21
	Fload0          Opcode = 0x22
	Fload1          Opcode = 0x23
	Fload2          Opcode = 0x24
	Fload3          Opcode = 0x25
	Dload0          Opcode = 0x26
	Dload1          Opcode = 0x27
	Dload2          Opcode = 0x28
	Dload3          Opcode = 0x29
	Aload0          Opcode = 0x2a
	Aload1          Opcode = 0x2b
	Aload2          Opcode = 0x2c
	Aload3          Opcode = 0x2d
	Iaload          Opcode = 0x2e
	Laload          Opcode = 0x2f
	Faload          Opcode = 0x30
	Daload          Opcode = 0x31
	Aaload          Opcode = 0x32
	Baload          Opcode = 0x33
	Caload          Opcode = 0x34
	Saload          Opcode = 0x35
	Istore          Opcode = 0x36
	Lstore          Opcode = 0x37
	Fstore          Opcode = 0x38
	Dstore          Opcode = 0x39
	Astore          Opcode = 0x3a
	Istore0         Opcode = 0x3b
	Istore1         Opcode = 0x3c
	Istore2         Opcode = 0x3d
	Istore3         Opcode = 0x3e
	Lstore0         Opcode = 0x3f
	Lstore1         Opcode = 0x40
	Lstore2         Opcode = 0x41
	Lstore3         Opcode = 0x42
	Fstore0         Opcode = 0x43
	Fstore1         Opcode = 0x44
	Fstore2         Opcode = 0x45
	Fstore3         Opcode = 0x46
	Dstore0         Opcode = 0x47
	Dstore1         Opcode = 0x48
	Dstore2         Opcode = 0x49
	Dstore3         Opcode = 0x4a
	Astore0         Opcode = 0x4b
	Astore1         Opcode = 0x4c
	Astore2         Opcode = 0x4d
	Astore3         Opcode = 0x4e
	Iastore         Opcode = 0x4f
	Lastore         Opcode = 0x50
	Fastore         Opcode = 0x51
	Dastore         Opcode = 0x52
	Aastore         Opcode = 0x53
	Bastore         Opcode = 0x54
	Castore         Opcode = 0x55
	Sastore         Opcode = 0x56
	Pop             Opcode = 0x57
	Pop2            Opcode = 0x58
	Dup             Opcode = 0x59
	DupX1           Opcode = 0x5a
	DupX2           Opcode = 0x5b
	Dup2            Opcode = 0x5c
	Dup2X1          Opcode = 0x5d
	Dup2X2          Opcode = 0x5e
	Swap            Opcode = 0x5f
	Iadd            Opcode = 0x60
	Ladd            Opcode = 0x61
	Fadd            Opcode = 0x62
	Dadd            Opcode = 0x63
	Isub            Opcode = 0x64
	Lsub            Opcode = 0x65
	Fsub            Opcode = 0x66
	Dsub            Opcode = 0x67
	Imul            Opcode = 0x68
	Lmul            Opcode = 0x69
	Fmul            Opcode = 0x6a
	Dmul            Opcode = 0x6b
	Idiv            Opcode = 0x6c
	Ldiv            Opcode = 0x6d
	Fdiv            Opcode = 0x6e
	Ddiv            Opcode = 0x6f
	Irem            Opcode = 0x70
	Lrem            Opcode = 0x71
	Frem            Opcode = 0x72
	Drem            Opcode = 0x73
	Ineg            Opcode = 0x74
	Lneg            Opcode = 0x75
	Fneg            Opcode = 0x76
	Dneg            Opcode = 0x77
	Ishl            Opcode = 0x78
	Lshl            Opcode = 0x79
	Ishr            Opcode = 0x7a
	Lshr            Opcode = 0x7b
	Iushr           Opcode = 0x7c
	Lushr           Opcode = 0x7d
	Iand            Opcode = 0x7e
	Land            Opcode = 0x7f
	Ior             Opcode = 0x80
	Lor             Opcode = 0x81
	Ixor            Opcode = 0x82
	Lxor            Opcode = 0x83
	Iinc            Opcode = 0x84
	I2l             Opcode = 0x85
	I2f             Opcode = 0x86
	I2d             Opcode = 0x87
	L2i             Opcode = 0x88
	L2f             Opcode = 0x89
	L2d             Opcode = 0x8a
	F2i             Opcode = 0x8b
	F2l             Opcode = 0x8c
	F2d             Opcode = 0x8d
	D2i             Opcode = 0x8e
	D2l             Opcode = 0x8f
	D2f             Opcode = 0x90
	I2b             Opcode = 0x91
	I2c             Opcode = 0x92
	I2s             Opcode = 0x93
	Lcmp            Opcode = 0x94
	Fcmpl           Opcode = 0x95
	Fcmpg           Opcode = 0x96
	Dcmpl           Opcode = 0x97
	Dcmpg           Opcode = 0x98
	Ifeq            Opcode = 0x99
	Ifne            Opcode = 0x9a
	Iflt            Opcode = 0x9b
	Ifge            Opcode = 0x9c
	Ifgt            Opcode = 0x9d
	Ifle            Opcode = 0x9e
	IfIcmpeq        Opcode = 0x9f
	IfIcmpne        Opcode = 0xa0
	IfIcmplt        Opcode = 0xa1
	IfIcmpge        Opcode = 0xa2
	IfIcmpgt        Opcode = 0xa3
	IfIcmple        Opcode = 0xa4
	IfAcmpeq        Opcode = 0xa5
	IfAcmpne        Opcode = 0xa6
	Goto            Opcode = 0xa7
	Jsr             Opcode = 0xa8
	Ret             Opcode = 0xa9
	Tableswitch     Opcode = 0xaa
	Lookupswitch    Opcode = 0xab
	Ireturn         Opcode = 0xac
	Lreturn         Opcode = 0xad
	Freturn         Opcode = 0xae
	Dreturn         Opcode = 0xaf
	Areturn         Opcode = 0xb0
	Return          Opcode = 0xb1
	Getstatic       Opcode = 0xb2
	Putstatic       Opcode = 0xb3
	Getfield        Opcode = 0xb4
	Putfield        Opcode = 0xb5
	Invokevirtual   Opcode = 0xb6
	Invokespecial   Opcode = 0xb7
	Invokestatic    Opcode = 0xb8
	Invokeinterface Opcode = 0xb9
	Invokedynamic   Opcode = 0xba
	New             Opcode = 0xbb
	Newarray        Opcode = 0xbc
	Anewarray       Opcode = 0xbd
	Arraylength     Opcode = 0xbe
	Athrow          Opcode = 0xbf
	Checkcast       Opcode = 0xc0
	Instanceof      Opcode = 0xc1
	Monitorenter    Opcode = 0xc2
	Monitorexit     Opcode = 0xc3
	Wide            Opcode = 0xc4
	Multianewarray  Opcode = 0xc5
	Ifnull          Opcode = 0xc6
	Ifnonnull       Opcode = 0xc7
	GotoW           Opcode = 0xc8
	JsrW            Opcode = 0xc9
)

// Format describes how an opcode's operands are encoded.
type Format uint8

const (
	FmtNone            Format = iota
	FmtByte                   // bipush: s1
	FmtShort                  // sipush: s2
	FmtLocal                  // u1 local index, u2 after wide
	FmtPool8                  // ldc: u1 pool index
	FmtPool16                 // u2 pool index
	FmtIinc                   // u1 index, s1 delta; u2/s2 after wide
	FmtBranch16               // s2 offset
	FmtBranch32               // s4 offset
	FmtTableSwitch            // padding, default, low, high, offsets
	FmtLookupSwitch           // padding, default, npairs, pairs
	FmtInvokeInterface        // u2 index, u1 count, u1 zero
	FmtInvokeDynamic          // u2 index, u2 zero
	FmtNewArray               // u1 atype
	FmtMultiANewArray         // u2 index, u1 dimensions
	FmtWide                   // prefix, folded into the following instruction
)

type opInfo struct {
	name   string
	format Format
}

var opTable = [...]opInfo{
	Nop:             {"nop", FmtNone},
	AconstNull:      {"aconst_null", FmtNone},
	IconstM1:        {"iconst_m1", FmtNone},
	Iconst0:         {"iconst_0", FmtNone},
	Iconst1:         {"iconst_1", FmtNone},
	Iconst2:         {"iconst_2", FmtNone},
	Iconst3:         {"iconst_3", FmtNone},
	Iconst4:         {"iconst_4", FmtNone},
	Iconst5:         {"iconst_5", FmtNone},
	Lconst0:         {"lconst_0", FmtNone},
	Lconst1:         {"lconst_1", FmtNone},
	Fconst0:         {"fconst_0", FmtNone},
	Fconst1:         {"fconst_1", FmtNone},
	Fconst2:         {"fconst_2", FmtNone},
	Dconst0:         {"dconst_0", FmtNone},
	Dconst1:         {"dconst_1", FmtNone},
	Bipush:          {"bipush", FmtByte},
	Sipush:          {"sipush", FmtShort},
	Ldc:             {"ldc", FmtPool8},
	LdcW:            {"ldc_w", FmtPool16},
	Ldc2W:           {"ldc2_w", FmtPool16},
	Iload:           {"iload", FmtLocal},
	Lload:           {"lload", FmtLocal},
	Fload:           {"fload", FmtLocal},
	Dload:           {"dload", FmtLocal},
	Aload:           {"aload", FmtLocal},
	Iload0:          {"iload_0", FmtNone},
	Iload1:          {"iload_1", FmtNone},
	Iload2:          {"iload_2", FmtNone},
	Iload3:          {"iload_3", FmtNone},
	Lload0:          {"lload_0", FmtNone},
	Lload1:          {"lload_1", FmtNone},
	Lload2:          {"lload_2", FmtNone},
	Lload3:          {"lload_3", FmtNone},
	Fload0:          {"fload_0", FmtNone},
	Fload1:          {"fload_1", FmtNone},
	Fload2:          {"fload_2", FmtNone},
	Fload3:          {"fload_3", FmtNone},
	Dload0:          {"dload_0", FmtNone},
	Dload1:          {"dload_1", FmtNone},
	Dload2:          {"dload_2", FmtNone},
	Dload3:          {"dload_3", FmtNone},
	Aload0:          {"aload_0", FmtNone},
	Aload1:          {"aload_1", FmtNone},
	Aload2:          {"aload_2", FmtNone},
	Aload3:          {"aload_3", FmtNone},
	Iaload:          {"iaload", FmtNone},
	Laload:          {"laload", FmtNone},
	Faload:          {"faload", FmtNone},
	Daload:          {"daload", FmtNone},
	Aaload:          {"aaload", FmtNone},
	Baload:          {"baload", FmtNone},
	Caload:          {"caload", FmtNone},
	Saload:          {"saload", FmtNone},
	Istore:          {"istore", FmtLocal},
	Lstore:          {"lstore", FmtLocal},
	Fstore:          {"fstore", FmtLocal},
	Dstore:          {"dstore", FmtLocal},
	Astore:          {"astore", FmtLocal},
	Istore0:         {"istore_0", FmtNone},
	Istore1:         {"istore_1", FmtNone},
	Istore2:         {"istore_2", FmtNone},
	Istore3:         {"istore_3", FmtNone},
	Lstore0:         {"lstore_0", FmtNone},
	Lstore1:         {"lstore_1", FmtNone},
	Lstore2:         {"lstore_2", FmtNone},
	Lstore3:         {"lstore_3", FmtNone},
	Fstore0:         {"fstore_0", FmtNone},
	Fstore1:         {"fstore_1", FmtNone},
	Fstore2:         {"fstore_2", FmtNone},
	Fstore3:         {"fstore_3", FmtNone},
	Dstore0:         {"dstore_0", FmtNone},
	Dstore1:         {"dstore_1", FmtNone},
	Dstore2:         {"dstore_2", FmtNone},
	Dstore3:         {"dstore_3", FmtNone},
	Astore0:         {"astore_0", FmtNone},
	Astore1:         {"astore_1", FmtNone},
	Astore2:         {"astore_2", FmtNone},
	Astore3:         {"astore_3", FmtNone},
	Iastore:         {"iastore", FmtNone},
	Lastore:         {"lastore", FmtNone},
	Fastore:         {"fastore", FmtNone},
	Dastore:         {"dastore", FmtNone},
	Aastore:         {"aastore", FmtNone},
	Bastore:         {"bastore", FmtNone},
	Castore:         {"castore", FmtNone},
	Sastore:         {"sastore", FmtNone},
	Pop:             {"pop", FmtNone},
	Pop2:            {"pop2", FmtNone},
	Dup:             {"dup", FmtNone},
	DupX1:           {"dup_x1", FmtNone},
	DupX2:           {"dup_x2", FmtNone},
	Dup2:            {"dup2", FmtNone},
	Dup2X1:          {"dup2_x1", FmtNone},
	Dup2X2:          {"dup2_x2", FmtNone},
	Swap:            {"swap", FmtNone},
	Iadd:            {"iadd", FmtNone},
	Ladd:            {"ladd", FmtNone},
	Fadd:            {"fadd", FmtNone},
	Dadd:            {"dadd", FmtNone},
	Isub:            {"isub", FmtNone},
	Lsub:            {"lsub", FmtNone},
	Fsub:            {"fsub", FmtNone},
	Dsub:            {"dsub", FmtNone},
	Imul:            {"imul", FmtNone},
	Lmul:            {"lmul", FmtNone},
	Fmul:            {"fmul", FmtNone},
	Dmul:            {"dmul", FmtNone},
	Idiv:            {"idiv", FmtNone},
	Ldiv:            {"ldiv", FmtNone},
	Fdiv:            {"fdiv", FmtNone},
	Ddiv:            {"ddiv", FmtNone},
	Irem:            {"irem", FmtNone},
	Lrem:            {"lrem", FmtNone},
	Frem:            {"frem", FmtNone},
	Drem:            {"drem", FmtNone},
	Ineg:            {"ineg", FmtNone},
	Lneg:            {"lneg", FmtNone},
	Fneg:            {"fneg", FmtNone},
	Dneg:            {"dneg", FmtNone},
	Ishl:            {"ishl", FmtNone},
	Lshl:            {"lshl", FmtNone},
	Ishr:            {"ishr", FmtNone},
	Lshr:            {"lshr", FmtNone},
	Iushr:           {"iushr", FmtNone},
	Lushr:           {"lushr", FmtNone},
	Iand:            {"iand", FmtNone},
	Land:            {"land", FmtNone},
	Ior:             {"ior", FmtNone},
	Lor:             {"lor", FmtNone},
	Ixor:            {"ixor", FmtNone},
	Lxor:            {"lxor", FmtNone},
	Iinc:            {"iinc", FmtIinc},
	I2l:             {"i2l", FmtNone},
	I2f:             {"i2f", FmtNone},
	I2d:             {"i2d", FmtNone},
	L2i:             {"l2i", FmtNone},
	L2f:             {"l2f", FmtNone},
	L2d:             {"l2d", FmtNone},
	F2i:             {"f2i", FmtNone},
	F2l:             {"f2l", FmtNone},
	F2d:             {"f2d", FmtNone},
	D2i:             {"d2i", FmtNone},
	D2l:             {"d2l", FmtNone},
	D2f:             {"d2f", FmtNone},
	I2b:             {"i2b", FmtNone},
	I2c:             {"i2c", FmtNone},
	I2s:             {"i2s", FmtNone},
	Lcmp:            {"lcmp", FmtNone},
	Fcmpl:           {"fcmpl", FmtNone},
	Fcmpg:           {"fcmpg", FmtNone},
	Dcmpl:           {"dcmpl", FmtNone},
	Dcmpg:           {"dcmpg", FmtNone},
	Ifeq:            {"ifeq", FmtBranch16},
	Ifne:            {"ifne", FmtBranch16},
	Iflt:            {"iflt", FmtBranch16},
	Ifge:            {"ifge", FmtBranch16},
	Ifgt:            {"ifgt", FmtBranch16},
	Ifle:            {"ifle", FmtBranch16},
	IfIcmpeq:        {"if_icmpeq", FmtBranch16},
	IfIcmpne:        {"if_icmpne", FmtBranch16},
	IfIcmplt:        {"if_icmplt", FmtBranch16},
	IfIcmpge:        {"if_icmpge", FmtBranch16},
	IfIcmpgt:        {"if_icmpgt", FmtBranch16},
	IfIcmple:        {"if_icmple", FmtBranch16},
	IfAcmpeq:        {"if_acmpeq", FmtBranch16},
	IfAcmpne:        {"if_acmpne", FmtBranch16},
	Goto:            {"goto", FmtBranch16},
	Jsr:             {"jsr", FmtBranch16},
	Ret:             {"ret", FmtLocal},
	Tableswitch:     {"tableswitch", FmtTableSwitch},
	Lookupswitch:    {"lookupswitch", FmtLookupSwitch},
	Ireturn:         {"ireturn", FmtNone},
	Lreturn:         {"lreturn", FmtNone},
	Freturn:         {"freturn", FmtNone},
	Dreturn:         {"dreturn", FmtNone},
	Areturn:         {"areturn", FmtNone},
	Return:          {"return", FmtNone},
	Getstatic:       {"getstatic", FmtPool16},
	Putstatic:       {"putstatic", FmtPool16},
	Getfield:        {"getfield", FmtPool16},
	Putfield:        {"putfield", FmtPool16},
	Invokevirtual:   {"invokevirtual", FmtPool16},
	Invokespecial:   {"invokespecial", FmtPool16},
	Invokestatic:    {"invokestatic", FmtPool16},
	Invokeinterface: {"invokeinterface", FmtInvokeInterface},
	Invokedynamic:   {"invokedynamic", FmtInvokeDynamic},
	New:             {"new", FmtPool16},
	Newarray:        {"newarray", FmtNewArray},
	Anewarray:       {"anewarray", FmtPool16},
	Arraylength:     {"arraylength", FmtNone},
	Athrow:          {"athrow", FmtNone},
	Checkcast:       {"checkcast", FmtPool16},
	Instanceof:      {"instanceof", FmtPool16},
	Monitorenter:    {"monitorenter", FmtNone},
	Monitorexit:     {"monitorexit", FmtNone},
	Wide:            {"wide", FmtWide},
	Multianewarray:  {"multianewarray", FmtMultiANewArray},
	Ifnull:          {"ifnull", FmtBranch16},
	Ifnonnull:       {"ifnonnull", FmtBranch16},
	GotoW:           {"goto_w", FmtBranch32},
	JsrW:            {"jsr_w", FmtBranch32},
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool { return int(op) < len(opTable) }

func (op Opcode) String() string {
	if !op.Valid() {
		return "invalid"
	}
	return opTable[op].name
}

// Format returns the operand encoding of op.
func (op Opcode) Format() Format {
	if !op.Valid() {
		return FmtNone
	}
	return opTable[op].format
}

// IsBranch reports whether op transfers control to a single explicit target.
func (op Opcode) IsBranch() bool {
	f := op.Format()
	return f == FmtBranch16 || f == FmtBranch32
}

// IsConditional reports whether op is a two-way branch with a fallthrough.
func (op Opcode) IsConditional() bool {
	return op.IsBranch() && op != Goto && op != GotoW && op != Jsr && op != JsrW
}

// IsSwitch reports whether op is tableswitch or lookupswitch.
func (op Opcode) IsSwitch() bool { return op == Tableswitch || op == Lookupswitch }

// IsReturn reports whether op returns from the method.
func (op Opcode) IsReturn() bool { return op >= Ireturn && op <= Return }

// IsTerminator reports whether control never falls through to the next
// instruction.
func (op Opcode) IsTerminator() bool {
	switch op {
	case Goto, GotoW, Athrow, Ret, Tableswitch, Lookupswitch:
		return true
	}
	return op.IsReturn()
}

// ImplicitLocal returns the local index encoded in the opcode itself
// (iload_2 etc.).
func (op Opcode) ImplicitLocal() (int, bool) {
	switch {
	case op >= Iload0 && op <= Aload3:
		return int(op-Iload0) % 4, true
	case op >= Istore0 && op <= Astore3:
		return int(op-Istore0) % 4, true
	}
	return 0, false
}

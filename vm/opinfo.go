package vm

import "amlvm/parser"

// opArgModes lists the parse-mode sequence each expression opcode
// collects before its reducer runs.
var opArgModes = map[parser.Opcode][]ParseMode{
	parser.OpStore:      {ModeObject, ModeReference},
	parser.OpNot:        {ModeObject, ModeReference},
	parser.OpAdd:        {ModeObject, ModeObject, ModeReference},
	parser.OpSubtract:   {ModeObject, ModeObject, ModeReference},
	parser.OpMultiply:   {ModeObject, ModeObject, ModeReference},
	parser.OpAnd:        {ModeObject, ModeObject, ModeReference},
	parser.OpOr:         {ModeObject, ModeObject, ModeReference},
	parser.OpXor:        {ModeObject, ModeObject, ModeReference},
	parser.OpShiftLeft:  {ModeObject, ModeObject, ModeReference},
	parser.OpShiftRight: {ModeObject, ModeObject, ModeReference},
	parser.OpDivide:     {ModeObject, ModeObject, ModeReference, ModeReference},
	parser.OpIncrement:  {ModeReference},
	parser.OpDecrement:  {ModeReference},
	parser.OpLnot:       {ModeObject},
	parser.OpLand:       {ModeObject, ModeObject},
	parser.OpLor:        {ModeObject, ModeObject},
	parser.OpLEqual:     {ModeObject, ModeObject},
	parser.OpLGreater:   {ModeObject, ModeObject},
	parser.OpLLess:      {ModeObject, ModeObject},
	parser.OpIndex:      {ModeObject, ModeObject, ModeReference},
	parser.OpDerefOf:    {ModeObject},
	parser.OpSizeOf:     {ModeReference},
	parser.OpCondRefOf:  {ModeReference, ModeReference},
	parser.OpSleep:      {ModeObject},
	parser.OpAcquire:    {ModeReference, ModeImmediateWord},
	parser.OpRelease:    {ModeReference},
	parser.OpRefOf:      {ModeReference},
}

// createFieldModes lists the two TermObj arguments CreateByteField and its
// siblings collect before reading their trailing NameString.
var createFieldModes = []ParseMode{ModeObject, ModeObject}

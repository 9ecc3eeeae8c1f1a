package command

import "fmt"

func errMalformed(line string) error {
	return fmt.Errorf("command: malformed command %q", line)
}

func errUnknownOp(op string) error {
	return fmt.Errorf("command: unknown operation %q", op)
}

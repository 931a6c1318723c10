package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"parklot/internal/models"
)

// Reader reads operator input line by line. It owns the prompts and the
// input-side validation: callers never see untrimmed or blank values.
type Reader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewReader builds a reader over the operator terminal.
func NewReader(in io.Reader, out io.Writer) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

// ReadMenuOption reads the main menu selection.
func (r *Reader) ReadMenuOption() (int, error) {
	return r.readInt()
}

// ReadVehicleTypeSelection prompts for and reads the vehicle class number.
func (r *Reader) ReadVehicleTypeSelection() (int, error) {
	fmt.Fprintln(r.out, "Please select vehicle type from menu")
	fmt.Fprintln(r.out, "1 CAR")
	fmt.Fprintln(r.out, "2 BIKE")
	return r.readInt()
}

// ReadVehiclePlate prompts for and reads a registration number. The value
// is trimmed; a blank entry is an input error.
func (r *Reader) ReadVehiclePlate() (string, error) {
	fmt.Fprintln(r.out, "Please type the vehicle registration number and press enter key")
	line, err := r.readLine()
	if err != nil {
		return "", err
	}
	plate := strings.TrimSpace(line)
	if plate == "" {
		return "", models.ErrBlankPlate
	}
	return plate, nil
}

func (r *Reader) readInt() (int, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", models.ErrInvalidSelection, strings.TrimSpace(line))
	}
	return value, nil
}

func (r *Reader) readLine() (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

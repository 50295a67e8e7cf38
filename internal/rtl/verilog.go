package rtl

import (
	"fmt"
	"io"
	"strings"

	"github.com/raydet/sequencer/internal/fsm"
	"github.com/raydet/sequencer/internal/lut"
)

// EmitVerilog renders the sequencer as a synthesizable SystemVerilog
// module, with the sequence store as an internal RAM initialized from
// program. The idle-state priority chain is rendered rule for rule from
// fsm.DispatchRules, so the emitted hardware and the software model share
// one dispatch table.
func EmitVerilog(w io.Writer, d Design, program []lut.Record) error {
	if len(program) > lut.Depth {
		return fmt.Errorf("program has %d records, store holds %d", len(program), lut.Depth)
	}
	for i, r := range program {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	width := d.Layout.Width()
	repW := d.fieldWidth(lut.FieldRepeatCount)
	holdW := d.fieldWidth(lut.FieldHoldLength)

	line("`timescale 1ns / 1ps")
	line("// %s: LUT-driven panel sequencer (%s dispatch, %d-bit records).", d.moduleName(), d.Mode, width)
	line("// Generated file. Do not edit by hand.")
	line("module %s (", d.moduleName())
	line("    input  logic        clk,")
	line("    input  logic        cfg_i,")
	line("    input  logic        exit_i,")
	line("    input  logic        lut_wen_i,")
	line("    input  logic        lut_rden_i,")
	line("    input  logic [%d:0] lut_wdata_i,", width-1)
	line("    output logic [%d:0] lut_rdata_o,", width-1)
	line("    output logic [%d:0]  state_o,", lut.StateBits-1)
	line("    output logic        busy_o,")
	line("    output logic        sequence_done_o,")
	line("    output logic [%d:0]  lut_addr_o,", lut.AddrBits-1)
	line("    output logic [%d:0]  repeat_count_o,", repW-1)
	line("    output logic [%d:0] hold_timer_o,", holdW-1)
	line("    output logic        eof_o,")
	line("    output logic        sof_o,")

	enables := enablePorts()
	for i, e := range enables {
		comma := ","
		if i == len(enables)-1 {
			comma = ""
		}
		line("    output logic        %s%s", e.port, comma)
	}
	line(");")
	line("")

	line("    // State encodings")
	for _, name := range lut.StateNames() {
		s, _ := lut.StateByName(name)
		line("    localparam logic [%d:0] %s = %d'd%d;", lut.StateBits-1, name, lut.StateBits, uint8(s))
	}
	line("")

	line("    // Sequence store")
	line("    localparam int LUT_DEPTH = %d;", lut.Depth)
	line("    localparam int LUT_WIDTH = %d;", width)
	line("    logic [LUT_WIDTH-1:0] internal_lut_ram [0:LUT_DEPTH-1];")
	line("")

	line("    // Registers")
	line("    logic [%d:0]  state_reg;", lut.StateBits-1)
	line("    logic [%d:0]  lut_addr_reg;", lut.AddrBits-1)
	line("    logic [%d:0]  repeat_count_reg;", repW-1)
	line("    logic [%d:0] hold_timer_reg;", holdW-1)
	line("    logic        eof_reg;")
	line("    logic        sof_reg;")
	line("    logic        done_reg;")
	line("")

	line("    // Read ports: rd_word is the record under the address cursor,")
	line("    // adv_word the record the idle dispatch advances to, base_word")
	line("    // record zero for launch and wrap.")
	line("    logic [LUT_WIDTH-1:0] rd_word;")
	line("    logic [%d:0]          adv_addr;", lut.AddrBits-1)
	line("    logic [LUT_WIDTH-1:0] adv_word;")
	line("    logic [LUT_WIDTH-1:0] base_word;")
	line("")
	line("    assign rd_word   = internal_lut_ram[lut_addr_reg];")
	if d.Layout.Extended() {
		line("    assign adv_addr  = %s;", d.slice("rd_word", lut.FieldNextAddress))
	} else {
		line("    assign adv_addr  = lut_addr_reg + %d'd1;", lut.AddrBits)
	}
	line("    assign adv_word  = internal_lut_ram[adv_addr];")
	line("    assign base_word = internal_lut_ram[%d'd0];", lut.AddrBits)
	line("")

	line("    // Observable outputs")
	line("    assign lut_rdata_o     = rd_word;")
	line("    assign state_o         = state_reg;")
	line("    assign busy_o          = (state_reg != IDLE && state_reg != RST);")
	line("    assign sequence_done_o = done_reg;")
	line("    assign lut_addr_o      = lut_addr_reg;")
	line("    assign repeat_count_o  = repeat_count_reg;")
	line("    assign hold_timer_o    = hold_timer_reg;")
	line("    assign eof_o           = eof_reg;")
	line("    assign sof_o           = sof_reg;")
	line("")
	for _, e := range enables {
		line("    assign %-17s = (state_reg == %s);", e.port, e.state.String())
	}
	line("")

	line("    // Store writes land only in the configuration state.")
	line("    always_ff @(posedge clk) begin")
	line("        if (state_reg == RST && !cfg_i && lut_wen_i) begin")
	line("            internal_lut_ram[lut_addr_reg] <= lut_wdata_i;")
	line("        end")
	line("    end")
	line("")

	line("    always_ff @(posedge clk) begin")
	line("        if (cfg_i) begin")
	line("            state_reg        <= RST;")
	line("            lut_addr_reg     <= %d'd0;", lut.AddrBits)
	line("            repeat_count_reg <= %d'd0;", repW)
	line("            hold_timer_reg   <= %d'd0;", holdW)
	line("            eof_reg          <= 1'b0;")
	line("            sof_reg          <= 1'b0;")
	line("            done_reg         <= 1'b0;")
	line("        end else begin")
	line("            sof_reg  <= 1'b0;")
	line("            done_reg <= 1'b0;")
	line("")
	line("            case (state_reg)")
	line("                RST : begin")
	line("                    // Configuration: enables walk the address cursor.")
	line("                    // The first quiet cycle launches the sequence.")
	line("                    if (lut_wen_i || lut_rden_i) begin")
	line("                        lut_addr_reg <= lut_addr_reg + %d'd1;", lut.AddrBits)
	line("                    end else begin")
	line("                        lut_addr_reg <= %d'd0;", lut.AddrBits)
	for _, l := range d.loadLines("base_word") {
		line("                        %s", l)
	}
	line("                    end")
	line("                end")
	line("")
	line("                IDLE : begin")

	rules := fsm.DispatchRules(d.Mode)
	for i, rule := range rules {
		switch {
		case i == 0:
			line("                    if (%s) begin", d.condExpr(rule.Cond))
		case rule.Cond == fsm.CondAlways:
			line("                    end else begin")
		default:
			line("                    end else if (%s) begin", d.condExpr(rule.Cond))
		}
		for _, l := range d.actionLines(rule.Action, repW, holdW) {
			line("                        %s", l)
		}
	}
	line("                    end")
	line("                end")
	line("")
	line("                default : begin")
	line("                    // Command states hold until the timer runs out.")
	line("                    if (hold_timer_reg > %d'd0) begin", holdW)
	line("                        hold_timer_reg <= hold_timer_reg - %d'd1;", holdW)
	line("                    end")
	line("                    if (hold_timer_reg <= %d'd1) begin", holdW)
	line("                        state_reg <= IDLE;")
	line("                    end")
	line("                end")
	line("            endcase")
	line("        end")
	line("    end")
	line("")

	line("    // Program image")
	line("    initial begin")
	line("        for (int i = 0; i < LUT_DEPTH; i++) internal_lut_ram[i] = '0;")
	hexDigits := (int(width) + 3) / 4
	for i, r := range program {
		line("        internal_lut_ram[%d] = %d'h%0*X; // %s", i, width, hexDigits, d.Layout.Pack(r), r)
	}
	line("    end")
	line("")
	line("endmodule")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("emit verilog: %w", err)
	}
	return nil
}

type enablePort struct {
	port  string
	state lut.State
}

func enablePorts() []enablePort {
	var ps []enablePort
	for _, name := range lut.StateNames() {
		s, _ := lut.StateByName(name)
		if port, ok := enableName(s); ok {
			ps = append(ps, enablePort{port: port, state: s})
		}
	}
	return ps
}

// condExpr renders a dispatch condition as a SystemVerilog expression over
// the register file and the read port.
func (d Design) condExpr(c fsm.DispatchCond) string {
	switch c {
	case fsm.CondRepeatPending:
		return "repeat_count_reg > 0"
	case fsm.CondCancelExit:
		return fmt.Sprintf("%s == 0 && exit_i", d.slice("rd_word", lut.FieldRepeatCount))
	case fsm.CondCancelHold:
		return fmt.Sprintf("%s == 0", d.slice("rd_word", lut.FieldRepeatCount))
	case fsm.CondEndOfSequence:
		return d.slice("rd_word", lut.FieldEOF)
	case fsm.CondAlways:
		return "1'b1"
	}
	return "1'b0"
}

// actionLines renders a dispatch action as non-blocking register updates.
func (d Design) actionLines(a fsm.DispatchAction, repW, holdW int) []string {
	switch a {
	case fsm.ActRepeat:
		return []string{
			fmt.Sprintf("repeat_count_reg <= repeat_count_reg - %d'd1;", repW),
			fmt.Sprintf("hold_timer_reg   <= %s;", d.slice("rd_word", lut.FieldHoldLength)),
			fmt.Sprintf("state_reg        <= %s;", d.slice("rd_word", lut.FieldNextState)),
		}
	case fsm.ActHold:
		return []string{
			fmt.Sprintf("hold_timer_reg   <= %s;", d.slice("rd_word", lut.FieldHoldLength)),
			fmt.Sprintf("state_reg        <= %s;", d.slice("rd_word", lut.FieldNextState)),
		}
	case fsm.ActAdvance:
		return append([]string{"lut_addr_reg     <= adv_addr;"}, d.loadLines("adv_word")...)
	case fsm.ActWrap:
		lines := append([]string{fmt.Sprintf("lut_addr_reg     <= %d'd0;", lut.AddrBits)}, d.loadLines("base_word")...)
		return append(lines, "done_reg         <= 1'b1;")
	}
	return nil
}

// loadLines renders the register loads that install a newly addressed
// record, mirroring the resolver's load step.
func (d Design) loadLines(word string) []string {
	return []string{
		fmt.Sprintf("state_reg        <= %s;", d.slice(word, lut.FieldNextState)),
		fmt.Sprintf("repeat_count_reg <= %s;", d.slice(word, lut.FieldRepeatCount)),
		fmt.Sprintf("hold_timer_reg   <= %s;", d.slice(word, lut.FieldHoldLength)),
		fmt.Sprintf("eof_reg          <= %s;", d.slice(word, lut.FieldEOF)),
		fmt.Sprintf("sof_reg          <= %s;", d.slice(word, lut.FieldSOF)),
	}
}

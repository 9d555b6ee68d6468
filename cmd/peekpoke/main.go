// Interactive memory inspector built on the peekpoke library
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/logutils"
	"github.com/peterh/liner"
	"github.com/xyproto/env/v2"

	"github.com/xyproto/peekpoke"
)

const versionString = "peekpoke 1.0.0"

var commands = []string{
	"alloc", "free", "help", "mods", "prot", "ps", "quit",
	"read", "scan", "str", "write",
}

type session struct {
	view    peekpoke.View
	pid     int
	maxDump int
}

func main() {
	pidFlag := flag.Int("pid", 0, "attach to this process id (default: own process)")
	nameFlag := flag.String("name", "", "attach to the first process matching this name")
	verboseFlag := flag.Bool("v", false, "enable debug logging")
	versionFlag := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(versionString)
		return
	}

	level := env.Str("PEEKPOKE_LOGLEVEL", "INFO")
	if *verboseFlag {
		level = "DEBUG"
	}
	log.SetFlags(0)
	log.SetOutput(&logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel(level),
		Writer:   os.Stderr,
	})

	pid := *pidFlag
	if *nameFlag != "" {
		proc, ok := peekpoke.FindProcess(*nameFlag)
		if !ok {
			log.Printf("[ERROR] no process matching %q", *nameFlag)
			os.Exit(1)
		}
		log.Printf("[INFO] found %s (pid %d)", proc.Name, proc.PID)
		pid = proc.PID
	}

	s := &session{maxDump: env.Int("PEEKPOKE_MAXDUMP", 4096)}
	if pid == 0 {
		pid = os.Getpid()
		local, err := peekpoke.NewLocalView()
		if err != nil {
			log.Printf("[ERROR] opening local view: %v", err)
			os.Exit(1)
		}
		defer local.Close()
		s.view = local
	} else {
		pv, err := peekpoke.NewProcessView(pid)
		if err != nil {
			log.Printf("[ERROR] attaching to pid %d: %v", pid, err)
			os.Exit(1)
		}
		defer pv.Close()
		s.view = pv
	}
	s.pid = pid
	log.Printf("[DEBUG] attached to pid %d", pid)

	repl(s)
}

func repl(s *session) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var out []string
		for _, c := range commands {
			if strings.HasPrefix(c, strings.ToLower(prefix)) {
				out = append(out, c+" ")
			}
		}
		return out
	})

	histFile := env.Str("PEEKPOKE_HISTFILE",
		filepath.Join(env.HomeDir(), ".peekpoke_history"))
	if f, err := os.Open(histFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		input, err := line.Prompt(fmt.Sprintf("peekpoke:%d> ", s.pid))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, liner.ErrNotTerminalOutput) {
				return
			}
			log.Printf("[ERROR] reading line: %v", err)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		if quit := dispatch(s, input); quit {
			return
		}
	}
}

func dispatch(s *session, input string) bool {
	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		printHelp()
	case "ps":
		cmdProcesses(args)
	case "mods":
		cmdModules(s)
	case "read":
		cmdRead(s, args)
	case "write":
		cmdWrite(s, args)
	case "scan":
		cmdScan(s, args)
	case "str":
		cmdString(s, args)
	case "prot":
		cmdProtection(s, args)
	case "alloc":
		cmdAlloc(s, args)
	case "free":
		cmdFree(s, args)
	default:
		fmt.Printf("unknown command %q, try help\n", cmd)
	}
	return false
}

func printHelp() {
	fmt.Print(`ps [filter]          list processes, optionally filtered by name
mods                 list modules of the attached process
read <addr> <n>      hex dump n bytes at addr
write <addr> <hex>   write hex bytes (like "48 8B C0") at addr
scan <sig> [module]  scan a signature over a module (default: main module)
str <addr> [n]       read a zero-terminated UTF-8 string (default 256 chars)
prot <addr>          show the protection of the region containing addr
alloc <n>            allocate n bytes of read-write memory
free <addr> <n>      free an allocation
quit                 leave
`)
}

func parseAddr(s string) (uintptr, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	return uintptr(v), err
}

func cmdProcesses(args []string) {
	procs, err := peekpoke.Processes()
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	filter := ""
	if len(args) > 0 {
		filter = strings.ToLower(args[0])
	}
	for _, p := range procs {
		if filter != "" && !strings.Contains(strings.ToLower(p.Name), filter) {
			continue
		}
		fmt.Printf("%7d  %-24s %s\n", p.PID, p.Name, p.Arch)
	}
}

func cmdModules(s *session) {
	mods, err := peekpoke.Modules(s.pid)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	for _, m := range mods {
		fmt.Printf("0x%012x  %8d KiB  %s\n", uint64(m.Base), m.Size/1024, m.Name)
	}
}

func cmdRead(s *session, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: read <addr> <n>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		fmt.Printf("bad count %q\n", args[1])
		return
	}
	if n > s.maxDump {
		log.Printf("[WARN] clamping dump to %d bytes", s.maxDump)
		n = s.maxDump
	}
	buf := make([]byte, n)
	got := s.view.Read(addr, buf)
	if got == 0 {
		fmt.Println("nothing readable at that address")
		return
	}
	hexDump(addr, buf[:got])
}

func hexDump(addr uintptr, data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]
		var hexCol, asciiCol strings.Builder
		for i, b := range row {
			if i == 8 {
				hexCol.WriteByte(' ')
			}
			fmt.Fprintf(&hexCol, "%02x ", b)
			if b >= 0x20 && b < 0x7f {
				asciiCol.WriteByte(b)
			} else {
				asciiCol.WriteByte('.')
			}
		}
		fmt.Printf("0x%012x  %-49s |%s|\n", uint64(addr)+uint64(off), hexCol.String(), asciiCol.String())
	}
}

func cmdWrite(s *session, args []string) {
	if len(args) < 2 {
		fmt.Println("usage: write <addr> <hex bytes>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	var data []byte
	for _, h := range args[1:] {
		b, err := strconv.ParseUint(h, 16, 8)
		if err != nil {
			fmt.Printf("bad byte %q\n", h)
			return
		}
		data = append(data, byte(b))
	}
	n := s.view.Write(addr, data)
	fmt.Printf("wrote %d of %d bytes\n", n, len(data))
}

func cmdScan(s *session, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: scan <signature> [module]")
		return
	}
	modName := ""
	sigParts := args
	// a trailing arg that is not hex or ?? selects the module
	if last := args[len(args)-1]; len(args) > 1 && !isSignaturePart(last) {
		modName = last
		sigParts = args[:len(args)-1]
	}
	pat, err := peekpoke.ParsePattern(strings.Join(sigParts, " "))
	if err != nil {
		fmt.Printf("bad signature: %v\n", err)
		return
	}

	mods, err := peekpoke.Modules(s.pid)
	if err != nil || len(mods) == 0 {
		fmt.Printf("cannot enumerate modules: %v\n", err)
		return
	}
	mod := mods[0]
	if modName != "" {
		m, ok := peekpoke.FindModule(s.pid, modName)
		if !ok {
			fmt.Printf("no module %q\n", modName)
			return
		}
		mod = m
	}

	log.Printf("[DEBUG] scanning %s for %s", mod.Name, pat)
	it := peekpoke.ModuleRange(s.view, mod).Scan(pat)
	hits := 0
	for {
		p, ok := it.Next()
		if !ok {
			break
		}
		fmt.Println(p)
		hits++
		if hits >= 100 {
			log.Printf("[WARN] stopping after 100 hits")
			break
		}
	}
	fmt.Printf("%d hit(s)\n", hits)
}

func isSignaturePart(s string) bool {
	if s == "??" {
		return true
	}
	_, err := strconv.ParseUint(s, 16, 8)
	return err == nil
}

func cmdString(s *session, args []string) {
	if len(args) == 0 {
		fmt.Println("usage: str <addr> [maxchars]")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	maxChars := 256
	if len(args) > 1 {
		if maxChars, err = strconv.Atoi(args[1]); err != nil {
			fmt.Printf("bad count %q\n", args[1])
			return
		}
	}
	fmt.Printf("%q\n", peekpoke.ReadString(s.view, addr, maxChars, peekpoke.UTF8, true))
}

func cmdProtection(s *session, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: prot <addr>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	prot, ok := s.view.Protection(addr)
	if !ok {
		fmt.Println("no mapping at that address")
		return
	}
	fmt.Println(prot)
}

func cmdAlloc(s *session, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: alloc <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		fmt.Printf("bad size %q\n", args[0])
		return
	}
	r, ok := s.view.Allocate(0, uintptr(n), peekpoke.ProtReadWrite)
	if !ok {
		fmt.Println("allocation failed")
		return
	}
	fmt.Printf("allocated %d bytes at 0x%x\n", r.Size, uint64(r.Base))
}

func cmdFree(s *session, args []string) {
	if len(args) != 2 {
		fmt.Println("usage: free <addr> <n>")
		return
	}
	addr, err := parseAddr(args[0])
	if err != nil {
		fmt.Printf("bad address %q\n", args[0])
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		fmt.Printf("bad size %q\n", args[1])
		return
	}
	if s.view.Free(addr, uintptr(n)) {
		fmt.Println("freed")
	} else {
		fmt.Println("free failed")
	}
}

package server

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/nixxel-company-limited/st-printer-port/printer"
)

// Server feeds bytes received over TCP into an emulated printer port.
// All connections are funnelled into one loop goroutine, which is the only
// caller of the port and also drives its idle tick.
type Server struct {
	port         *printer.Port
	listener     net.Listener
	address      string
	tickInterval time.Duration
	data         chan []byte
	quit         chan struct{}
	loopDone     chan struct{}
	conns        map[net.Conn]struct{}
	mu           sync.Mutex
	running      bool
	wg           sync.WaitGroup
	logger       *log.Logger
}

// New creates a new server instance
func New(port *printer.Port, address string, tickInterval time.Duration) *Server {
	logger := log.New(os.Stdout, "[SERVER] ", log.LstdFlags|log.Lmsgprefix)
	return NewWithLogger(port, address, tickInterval, logger)
}

// NewWithLogger creates a new server instance with a custom logger
func NewWithLogger(port *printer.Port, address string, tickInterval time.Duration, logger *log.Logger) *Server {
	return &Server{
		port:         port,
		address:      address,
		tickInterval: tickInterval,
		logger:       logger,
	}
}

// listen opens the listener and starts the port loop
func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Println("Error: Server already running")
		return fmt.Errorf("server already running")
	}

	if s.tickInterval <= 0 {
		return fmt.Errorf("invalid tick interval %v", s.tickInterval)
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Printf("Error: Failed to start server: %v", err)
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.data = make(chan []byte, 64)
	s.quit = make(chan struct{})
	s.loopDone = make(chan struct{})
	s.conns = make(map[net.Conn]struct{})
	s.logger.Printf("Server listening on %s", s.address)

	// the accept loop, started by the caller
	s.wg.Add(1)
	go s.run()

	return nil
}

// Start starts the TCP server and blocks until Stop is called
func (s *Server) Start() error {
	s.logger.Printf("Starting server on %s (blocking mode)", s.address)
	if err := s.listen(); err != nil {
		return err
	}

	s.logger.Println("Ready to accept connections")
	s.acceptConnections()

	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	s.logger.Printf("Starting server on %s (async mode)", s.address)
	if err := s.listen(); err != nil {
		return err
	}

	go s.acceptConnections()
	s.logger.Println("Server started in background, ready to accept connections")

	return nil
}

// run owns the printer port until Stop
func (s *Server) run() {
	defer close(s.loopDone)

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case chunk := <-s.data:
			s.transfer(chunk)
		case <-ticker.C:
			s.port.Tick()
		case <-s.quit:
			for {
				select {
				case chunk := <-s.data:
					s.transfer(chunk)
				default:
					if err := s.port.Shutdown(); err != nil {
						s.logger.Printf("Error shutting down printer: %v", err)
					}
					return
				}
			}
		}
	}
}

func (s *Server) transfer(chunk []byte) {
	dropped := 0
	for _, b := range chunk {
		if !s.port.TransferByte(b) {
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Printf("Printer unavailable, dropped %d bytes", dropped)
	}
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()

			if !running {
				s.logger.Println("Server shutting down, stopping accept loop")
				return
			}
			s.logger.Printf("Error accepting connection: %v", err)
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()

		s.logger.Printf("Client connected from %s", conn.RemoteAddr())
		go s.handleConnection(conn)
	}
}

// handleConnection forwards everything a client sends to the port loop
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		s.logger.Printf("Client disconnected: %s", conn.RemoteAddr())
		conn.Close()
	}()

	clientAddr := conn.RemoteAddr().String()
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.data <- chunk
		}
		if err != nil {
			if err != io.EOF && s.IsRunning() {
				s.logger.Printf("Error reading from client %s: %v", clientAddr, err)
			}
			return
		}
	}
}

// Stop closes the listener and all clients, then flushes and closes the printer
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.logger.Println("Stop called but server is not running")
		return nil
	}

	s.logger.Println("Stopping server...")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	// Wait for all connections to finish
	s.wg.Wait()

	close(s.quit)
	<-s.loopDone

	s.logger.Println("Server stopped successfully")
	return nil
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured listen address
func (s *Server) Address() string {
	return s.address
}

// ListenAddr returns the bound address while running
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

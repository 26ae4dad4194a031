package loader

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/classfile"
	"github.com/roach88/keepmark/internal/report"
	"github.com/roach88/keepmark/internal/shrink"
	"github.com/roach88/keepmark/internal/testutil"
	"github.com/roach88/keepmark/internal/usage"
)

func loadSource(t *testing.T, src string) (*Program, error) {
	t.Helper()
	return New().LoadSource("test.cue", []byte(src))
}

func mustLoad(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := loadSource(t, src)
	require.NoError(t, err)
	return prog
}

func requireLoadError(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	require.Error(t, err)
	require.True(t, IsLoadError(err), "want *LoadError, got %T: %v", err, err)
	le := err.(*LoadError)
	assert.Equal(t, code, le.Code, le.Error())
	return le
}

// =============================================================================
// Directory loading
// =============================================================================

func TestLoad_AppDir(t *testing.T) {
	prog, err := New().Load("testdata/app")
	require.NoError(t, err)

	assert.Empty(t, prog.Unresolved)
	assert.Equal(t, 8, prog.Pools.Program.Size())
	assert.Equal(t, 2, prog.Pools.Library.Size())
	assert.Len(t, prog.Pools.Resources.Files(), 3)

	var names []string
	for _, c := range prog.Pools.Program.Classes() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{
		testutil.MainName, testutil.HelperName, testutil.TaskName, testutil.WorkerName,
		testutil.ServiceName, testutil.ComponentName, testutil.DeadName, testutil.FacadeName,
	}, names)

	assert.Equal(t, shrink.Seeds{
		Members: []shrink.MemberSeed{{Class: testutil.MainName, Name: "main"}},
	}, prog.Seeds)
}

// The CUE description of the App fixture marks exactly like the fixture.
func TestLoad_AppDirMarksLikeFixture(t *testing.T) {
	prog, err := New().Load("testdata/app")
	require.NoError(t, err)
	fixture := testutil.NewApp(t)

	render := func(pools *classfile.Pools, seeds shrink.Seeder) string {
		m := usage.NewShortestMarker()
		_, err := shrink.New(m, shrink.WithLogger(slog.New(slog.DiscardHandler))).
			Mark(context.Background(), pools, seeds)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, report.NewPrinter(&buf, m).PrintPools(pools))
		return buf.String()
	}

	want := render(fixture.Pools, prog.Seeds)
	got := render(prog.Pools, prog.Seeds)
	assert.Equal(t, want, got)
	assert.Contains(t, got, "com.example.Worker.count:I is used")
}

func TestLoad_SingleFile(t *testing.T) {
	prog, err := New().Load("testdata/app/app.cue")
	require.NoError(t, err)
	assert.Equal(t, 8, prog.Pools.Program.Size())
}

func TestLoad_Errors(t *testing.T) {
	_, err := New().Load("testdata/does-not-exist")
	requireLoadError(t, err, ErrCodeNotFound)

	_, err = New().LoadDir(t.TempDir())
	requireLoadError(t, err, ErrCodeNoFiles)
}

// =============================================================================
// Descriptions
// =============================================================================

func TestLoadSource_Defaults(t *testing.T) {
	prog := mustLoad(t, `
		classes: "a/A": {}
		classes: "a/I": {
			access: ["public", "interface", "abstract"]
			super: ""
		}
		library: "java/lang/Object": {}
	`)

	a := prog.Pools.Program.Get("a/A").(*classfile.ProgramClass)
	assert.Equal(t, ObjectName, a.Super().Name())
	assert.Zero(t, a.Access)

	i := prog.Pools.Program.Get("a/I").(*classfile.ProgramClass)
	assert.Nil(t, i.Super())
	assert.True(t, i.IsInterface())

	object := prog.Pools.Library.Get(ObjectName)
	assert.Nil(t, object.Super())
}

func TestLoadSource_Members(t *testing.T) {
	prog := mustLoad(t, `
		classes: "a/A": {
			fields: "x:J": access: ["private", "static", "final"]
			methods: {
				"<clinit>()V": access: ["static"]
				"run()V": {
					access: ["public"]
					annotations: ["Ljava/lang/Deprecated;"]
					code: [{field: "a/A.x:J"}, {method: "a/A.run()V"}]
				}
				"abs()I": access: ["public", "abstract"]
			}
		}
		library: "java/lang/Object": {}
	`)

	a := prog.Pools.Program.Get("a/A").(*classfile.ProgramClass)
	require.Len(t, a.Fields, 1)
	assert.Equal(t, classfile.AccPrivate|classfile.AccStatic|classfile.AccFinal, a.Fields[0].Access)

	run := a.ProgramMethod("run", "()V")
	require.NotNil(t, run)
	require.NotNil(t, run.Code())
	require.Len(t, run.Code().ConstantRefs, 2)
	fieldRef := a.Constant(run.Code().ConstantRefs[0]).(*classfile.RefConstant)
	assert.Same(t, a.Fields[0], fieldRef.ReferencedMember)
	methodRef := a.Constant(run.Code().ConstantRefs[1]).(*classfile.RefConstant)
	assert.Same(t, run, methodRef.ReferencedMember)
	assert.Len(t, run.Attributes, 2, "code plus annotations")

	assert.Nil(t, a.ProgramMethod("abs", "()I").Code(), "abstract methods have no code")
	clinit := a.ProgramMethod(classfile.MethodNameClinit, classfile.MethodTypeClinit)
	require.NotNil(t, clinit)
	assert.Empty(t, clinit.Code().ConstantRefs)
}

func TestLoadSource_StringConstantsLink(t *testing.T) {
	prog := mustLoad(t, `
		classes: "a/A": methods: "m()V": code: [
			{"string": "a.B"},
			{"string": "config.txt"},
			{"string": "plain text"},
		]
		classes: "a/B": {}
		library: "java/lang/Object": {}
		resources: "config.txt": size: 3
	`)

	a := prog.Pools.Program.Get("a/A").(*classfile.ProgramClass)
	refs := a.ProgramMethod("m", "()V").Code().ConstantRefs
	require.Len(t, refs, 3)

	toClass := a.Constant(refs[0]).(*classfile.StringConstant)
	assert.Equal(t, prog.Pools.Program.Get("a/B"), toClass.ReferencedClass)

	toResource := a.Constant(refs[1]).(*classfile.StringConstant)
	assert.Same(t, prog.Pools.Resources.Get("config.txt"), toResource.ReferencedResource)

	plain := a.Constant(refs[2]).(*classfile.StringConstant)
	assert.Nil(t, plain.ReferencedClass)
	assert.Nil(t, plain.ReferencedResource)
}

func TestLoadSource_ClassAttributes(t *testing.T) {
	prog := mustLoad(t, `
		classes: "a/Shape": {
			access: ["public", "abstract"]
			permittedSubclasses: ["a/Circle"]
			innerClasses: [{inner: "a/Shape$1", access: ["static"]}]
			signature: "<T:Ljava/lang/Object;>Ljava/lang/Object;"
		}
		classes: "a/Circle": {
			super: "a/Shape"
			access: ["final"]
			record: [{name: "r", descriptor: "D"}]
			fields: "r:D": access: ["private", "final"]
		}
		classes: "a/Shape$1": {}
		library: "java/lang/Object": {}
	`)

	shape := prog.Pools.Program.Get("a/Shape").(*classfile.ProgramClass)
	assert.Len(t, shape.Attributes, 3)
	circle := prog.Pools.Program.Get("a/Circle").(*classfile.ProgramClass)
	assert.Same(t, shape, circle.Super())
	require.Len(t, circle.Attributes, 1)
	_, ok := circle.Attributes[0].(*classfile.RecordAttribute)
	assert.True(t, ok)
}

func TestLoadSource_KotlinModule(t *testing.T) {
	prog := mustLoad(t, `
		classes: "p/FooKt": {}
		classes: "p/Multi__PartKt": {}
		library: "java/lang/Object": {}
		resources: "META-INF/m.kotlin_module": kotlinModule: {
			name: "m"
			packages: {
				"q": facades: ["q/Gone"]
				"p": {
					facades: ["p/FooKt"]
					parts: "p/Multi__PartKt": "p/Multi"
				}
			}
		}
	`)

	km := prog.Pools.Resources.Get("META-INF/m.kotlin_module").KotlinModule
	require.NotNil(t, km)
	require.Len(t, km.Packages, 2)
	p := km.Packages[0]
	assert.Equal(t, "p", p.FqName, "packages are sorted")
	assert.Equal(t, prog.Pools.Program.Get("p/FooKt"), p.ReferencedFileFacades[0])
	require.Len(t, p.MultiFileClassParts, 1)
	assert.Equal(t, "p/Multi", p.MultiFileClassParts[0].FacadeName)
	assert.NotNil(t, p.MultiFileClassParts[0].ReferencedPart)
	assert.Nil(t, km.Packages[1].ReferencedFileFacades[0])
}

func TestLoadSource_Keep(t *testing.T) {
	prog := mustLoad(t, `
		classes: "a/A": methods: "m(I)V": {}
		library: "java/lang/Object": {}
		keep: {
			classes: ["a.A"]
			members: ["a/A.m(I)V", "a/A.f:I", "a/A.any"]
			resources: ["x.txt"]
		}
	`)

	assert.Equal(t, []string{"a/A"}, prog.Seeds.Classes)
	assert.Equal(t, []shrink.MemberSeed{
		{Class: "a/A", Name: "m", Descriptor: "(I)V"},
		{Class: "a/A", Name: "f", Descriptor: "I"},
		{Class: "a/A", Name: "any"},
	}, prog.Seeds.Members)
	assert.Equal(t, []string{"x.txt"}, prog.Seeds.Resources)
}

func TestLoadSource_Unresolved(t *testing.T) {
	prog := mustLoad(t, `
		classes: "a/A": {
			interfaces: ["a/Missing"]
			methods: "m()V": code: [{class: "b/Gone"}]
		}
		library: "java/lang/Object": {}
	`)
	assert.Equal(t, []string{"a/Missing", "b/Gone"}, prog.Unresolved)
}

func TestLoadSource_NFC(t *testing.T) {
	decomposed := "a/Cafe\u0301"
	composed := "a/Caf\u00e9"
	prog := mustLoad(t, `
		classes: "`+decomposed+`": {}
		library: "java/lang/Object": {}
		keep: classes: ["`+composed+`"]
	`)

	require.NotNil(t, prog.Pools.Program.Get(composed))
	assert.Nil(t, prog.Pools.Program.Get(decomposed))
	assert.Equal(t, []string{composed}, prog.Seeds.Classes)
}

// =============================================================================
// Errors
// =============================================================================

func TestLoadSource_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{
			name: "syntax",
			src:  `classes: "a/A": {`,
			code: ErrCodeLoadFailed,
		},
		{
			name: "unknown key",
			src:  `classes: "a/A": {extends: "b/B"}`,
			code: ErrCodeSchema,
		},
		{
			name: "unknown access flag",
			src:  `classes: "a/A": access: ["sealed"]`,
			code: ErrCodeSchema,
		},
		{
			name: "negative size",
			src:  `resources: "x": size: -1`,
			code: ErrCodeSchema,
		},
		{
			name: "ref with two keys",
			src:  `classes: "a/A": methods: "m()V": code: [{class: "a/A", field: "a/A.f:I"}]`,
			code: ErrCodeSchema,
		},
		{
			name: "field without descriptor",
			src:  `classes: "a/A": fields: "count": {}`,
			code: ErrCodeSignature,
		},
		{
			name: "method without descriptor",
			src:  `classes: "a/A": methods: "run": {}`,
			code: ErrCodeSignature,
		},
		{
			name: "field ref without descriptor",
			src:  `classes: "a/A": methods: "m()V": code: [{field: "a/A.f"}]`,
			code: ErrCodeSignature,
		},
		{
			name: "member ref without owner",
			src:  `classes: "a/A": methods: "m()V": code: [{method: "run()V"}]`,
			code: ErrCodeSignature,
		},
		{
			name: "abstract with code",
			src:  `classes: "a/A": methods: "m()V": {access: ["abstract"], code: [{class: "a/A"}]}`,
			code: ErrCodeSignature,
		},
		{
			name: "library method without descriptor",
			src:  `library: "a/L": methods: ["run"]`,
			code: ErrCodeSignature,
		},
		{
			name: "keep member without owner",
			src:  `keep: members: ["main"]`,
			code: ErrCodeSignature,
		},
		{
			name: "program and library",
			src:  `classes: "a/A": {}` + "\n" + `library: "a/A": {}`,
			code: ErrCodeDuplicate,
		},
		{
			name: "class extends itself",
			src:  `classes: "a/A": super: "a/A"`,
			code: ErrCodeCycle,
		},
		{
			name: "circular interfaces",
			src:  `classes: "a/I": {access: ["interface"], interfaces: ["a/J"]}` + "\n" + `classes: "a/J": {access: ["interface"], interfaces: ["a/I"]}`,
			code: ErrCodeCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSource(t, tt.src)
			requireLoadError(t, err, tt.code)
		})
	}
}

func TestLoadError_Position(t *testing.T) {
	_, err := loadSource(t, `
classes: "a/A": {
	methods: "run": {
		access: ["public"]
	}
}
`)
	le := requireLoadError(t, err, ErrCodeSignature)
	require.True(t, le.Pos.IsValid())
	assert.Equal(t, "test.cue", le.Pos.Filename())
	assert.Equal(t, 3, le.Pos.Line())
	assert.Contains(t, le.Error(), "test.cue:")
	assert.Contains(t, le.Error(), ErrCodeSignature)
}

func TestLoadSource_CircularSuperclass(t *testing.T) {
	_, err := loadSource(t, `
classes: "a/A": {
	super: "a/B"
	interfaces: ["java/lang/Runnable"]
}
classes: "a/B": super: "a/A"
library: "java/lang/Runnable": {access: ["public", "interface", "abstract"], methods: ["run()V"]}
`)
	le := requireLoadError(t, err, ErrCodeCycle)
	assert.Contains(t, le.Message, "a/A -> a/B -> a/A")
	require.True(t, le.Pos.IsValid())
	assert.Equal(t, 2, le.Pos.Line())
}

func TestLoadError_NoPosition(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in x"}
	assert.Equal(t, "E202: no CUE files found in x", err.Error())
}

// =============================================================================
// Helpers
// =============================================================================

func TestSplitMemberRef(t *testing.T) {
	tests := []struct {
		ref                     string
		class, name, descriptor string
		wantErr                 bool
	}{
		{ref: "a/B.run()V", class: "a/B", name: "run", descriptor: "()V"},
		{ref: "a/B.count:I", class: "a/B", name: "count", descriptor: "I"},
		{ref: "a/B$C.<init>(I)V", class: "a/B$C", name: "<init>", descriptor: "(I)V"},
		{ref: "a/B.main", class: "a/B", name: "main"},
		{ref: "main", wantErr: true},
		{ref: ".main", wantErr: true},
		{ref: "a/B.", wantErr: true},
		{ref: "a/B.(I)V", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			class, name, descriptor, err := splitMemberRef(tt.ref)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.class, class)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.descriptor, descriptor)
		})
	}
}

func TestFlagsAndAnnotationTypes(t *testing.T) {
	assert.Equal(t, classfile.AccPublic|classfile.AccInterface|classfile.AccAbstract,
		flags([]string{"public", "interface", "abstract"}))
	assert.Zero(t, flags(nil))

	assert.Equal(t, []string{"La/Ann;", "Lb/Other;"}, annotationTypes([]string{"a/Ann", "Lb/Other;"}))
}

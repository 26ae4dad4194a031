package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/keepmark/internal/classfile"
)

// App is a small linked program used across package tests. Seeding
// Main.main reaches:
//
//	Main.main -> Service.start, Task.run, Worker, "app.properties"
//	Worker.run -> Worker.count
//
// and leaves Dead, Worker.helper, Service.cache, Component and
// Main$Helper unused.
type App struct {
	Pools *classfile.Pools

	Main       *classfile.ProgramClass
	MainMethod *classfile.ProgramMethod
	Helper     *classfile.ProgramClass

	Task    *classfile.ProgramClass
	TaskRun *classfile.ProgramMethod

	Worker       *classfile.ProgramClass
	WorkerRun    *classfile.ProgramMethod
	WorkerHelper *classfile.ProgramMethod
	WorkerString *classfile.ProgramMethod
	WorkerCount  *classfile.ProgramField

	Service      *classfile.ProgramClass
	ServiceStart *classfile.ProgramMethod
	ServiceCache *classfile.ProgramField

	Component *classfile.ProgramClass
	Dead      *classfile.ProgramClass
	Facade    *classfile.ProgramClass

	Properties *classfile.ResourceFile
	Unused     *classfile.ResourceFile
	Module     *classfile.KotlinModule
}

// Names used by the App fixture.
const (
	ObjectName    = "java/lang/Object"
	StringName    = "java/lang/String"
	MainName      = "com/example/Main"
	HelperName    = "com/example/Main$Helper"
	TaskName      = "com/example/Task"
	WorkerName    = "com/example/Worker"
	ServiceName   = "com/example/Service"
	ComponentName = "com/example/Component"
	DeadName      = "com/example/Dead"
	FacadeName    = "com/example/UtilKt"
	MainDesc      = "([Ljava/lang/String;)V"
	VoidDesc      = "()V"
)

// NewApp builds and links the App fixture.
func NewApp(t testing.TB) *App {
	t.Helper()
	const pub = classfile.AccPublic
	app := &App{}

	mb := classfile.NewBuilder(MainName, ObjectName, pub)
	properties := mb.String("app.properties")
	app.MainMethod = mb.Method(pub|classfile.AccStatic, "main", MainDesc, mb.Code(
		mb.MethodRef(ServiceName, "start", VoidDesc),
		mb.InterfaceMethodRef(TaskName, "run", VoidDesc),
		mb.Class(WorkerName),
		properties,
	))
	mb.Attribute(mb.SourceFile("Main.java"))
	mb.Attribute(mb.NestMembers(HelperName))
	app.Main = mb.Build()

	hb := classfile.NewBuilder(HelperName, ObjectName, 0)
	hb.Attribute(hb.NestHost(MainName))
	app.Helper = hb.Build()

	tb := classfile.NewBuilder(TaskName, ObjectName, pub|classfile.AccInterface|classfile.AccAbstract)
	app.TaskRun = tb.Method(pub|classfile.AccAbstract, "run", VoidDesc)
	app.Task = tb.Build()

	wb := classfile.NewBuilder(WorkerName, ObjectName, pub)
	wb.Interface(TaskName)
	app.WorkerCount = wb.Field(classfile.AccPrivate, "count", "I")
	app.WorkerRun = wb.Method(pub, "run", VoidDesc, wb.Code(wb.FieldRef(WorkerName, "count", "I")))
	app.WorkerHelper = wb.Method(pub, "helper", VoidDesc, wb.Code())
	app.WorkerString = wb.Method(pub, "toString", "()Ljava/lang/String;", wb.Code())
	app.Worker = wb.Build()

	sb := classfile.NewBuilder(ServiceName, ObjectName, pub)
	sb.Attribute(sb.Annotations(true, "L"+ComponentName+";"))
	app.ServiceStart = sb.Method(pub|classfile.AccStatic, "start", VoidDesc, sb.Code())
	app.ServiceCache = sb.Field(classfile.AccPrivate|classfile.AccStatic, "cache", "Ljava/lang/Object;")
	app.Service = sb.Build()

	app.Component = classfile.NewBuilder(ComponentName, ObjectName,
		pub|classfile.AccInterface|classfile.AccAbstract|classfile.AccAnnotation).Build()

	db := classfile.NewBuilder(DeadName, ObjectName, pub)
	db.Method(pub, "unreachable", VoidDesc, db.Code(db.MethodRef(ServiceName, "start", VoidDesc)))
	app.Dead = db.Build()

	app.Facade = classfile.NewBuilder(FacadeName, ObjectName, pub|classfile.AccFinal).Build()

	app.Properties = &classfile.ResourceFile{FileName: "app.properties", Size: 42}
	app.Unused = &classfile.ResourceFile{FileName: "unused.txt", Size: 7}
	app.Module = &classfile.KotlinModule{
		Name: "app",
		Packages: []*classfile.KotlinModulePackage{{
			FqName:          "com.example",
			FileFacadeNames: []string{FacadeName},
		}},
	}

	library := classfile.NewClassPool(
		classfile.NewLibraryClass(ObjectName, "", pub, nil, "<init>()V", "toString()Ljava/lang/String;"),
		classfile.NewLibraryClass(StringName, ObjectName, pub|classfile.AccFinal, nil),
	)
	app.Pools = &classfile.Pools{
		Program: classfile.NewClassPool(app.Main, app.Helper, app.Task, app.Worker, app.Service,
			app.Component, app.Dead, app.Facade),
		Library: library,
		Resources: classfile.NewResourceFilePool(app.Properties, app.Unused,
			&classfile.ResourceFile{FileName: "META-INF/app.kotlin_module", KotlinModule: app.Module}),
	}
	require.NoError(t, classfile.Link(app.Pools.Program, app.Pools.Library))
	classfile.LinkKotlinModules(app.Pools.Resources, app.Pools.Program)
	app.Main.Constant(properties).(*classfile.StringConstant).ReferencedResource = app.Properties

	return app
}
